package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"solana-buy-ranking/internal/competition"
	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/ingestion"
	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/ranking"
	"solana-buy-ranking/internal/reporting"
)

const helpText = `Buy ranking bot commands:
/startcompetition <token> <days> - start ranking buys of a token in this group
/competition - show the current competition
/ranking - show the top buyers of the current competition
/registerwallet <wallet> - limit the ranking to registered wallets
/help - show this message`

// Competitions is the part of competition.Registry the bot drives.
type Competitions interface {
	Start(ctx context.Context, groupID, targetToken string, durationDays int) (*competition.StartResult, error)
	Get(ctx context.Context, groupID string) (*domain.Competition, domain.CompetitionStatus, error)
	RegisterWallet(ctx context.Context, groupID, userID, wallet string) (*domain.WalletRegistration, error)
}

// Rankings computes group rankings. ranking.Service implements it.
type Rankings interface {
	GroupRanking(ctx context.Context, groupID string) (*ranking.Result, error)
}

// HandlerOptions for creating a Handler.
type HandlerOptions struct {
	Competitions Competitions
	Rankings     Rankings
	Notifier     Notifier
	BotUsername  string // commands mentioning another bot are ignored
	Logger       *zap.Logger
	Clock        func() time.Time
}

// Handler turns chat commands into registry and ranking calls.
type Handler struct {
	competitions Competitions
	rankings     Rankings
	notifier     Notifier
	username     string
	logger       *zap.Logger
	clock        func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(opts HandlerOptions) *Handler {
	h := &Handler{
		competitions: opts.Competitions,
		rankings:     opts.Rankings,
		notifier:     opts.Notifier,
		username:     opts.BotUsername,
		logger:       opts.Logger,
		clock:        opts.Clock,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	return h
}

// HandleUpdate processes one update. Messages that are not commands for this
// bot are ignored. The returned error is a failure to reply; command errors
// are reported to the chat instead.
func (h *Handler) HandleUpdate(ctx context.Context, upd *Update) error {
	if upd == nil || upd.Message == nil {
		return nil
	}
	msg := upd.Message
	cmd, ok := ParseCommand(msg.Text)
	if !ok || !cmd.AddressedTo(h.username) {
		return nil
	}

	observability.RecordCommand(cmd.Name)
	h.logger.Debug("command received",
		zap.String("command", cmd.Name),
		zap.Int64("chat", msg.Chat.ID),
		zap.Strings("args", cmd.Args),
	)

	switch cmd.Name {
	case CmdStart:
		return h.reply(ctx, msg, "Hi! I rank the buyers of a Solana token in this group. Use /help to see the commands.")
	case CmdHelp:
		return h.reply(ctx, msg, helpText)
	case CmdStartCompetition:
		return h.startCompetition(ctx, msg, cmd.Args)
	case CmdCompetition:
		return h.showCompetition(ctx, msg)
	case CmdRanking:
		return h.showRanking(ctx, msg)
	case CmdRegisterWallet:
		return h.registerWallet(ctx, msg, cmd.Args)
	default:
		return h.reply(ctx, msg, "Unknown command. Use /help to see the commands.")
	}
}

func (h *Handler) startCompetition(ctx context.Context, msg *Message, args []string) error {
	if len(args) != 2 {
		return h.reply(ctx, msg, "Usage: /startcompetition <token_address> <days>")
	}
	days, err := strconv.Atoi(args[1])
	if err != nil {
		return h.reply(ctx, msg, fmt.Sprintf("Invalid number of days: %s", args[1]))
	}

	res, err := h.competitions.Start(ctx, msg.Chat.GroupID(), args[0], days)
	switch {
	case errors.Is(err, competition.ErrInvalidAddress):
		return h.reply(ctx, msg, fmt.Sprintf("Invalid token address: %s", args[0]))
	case errors.Is(err, competition.ErrInvalidDuration):
		return h.reply(ctx, msg, fmt.Sprintf("Duration must be between %d and %d days.",
			competition.MinDurationDays, competition.MaxDurationDays))
	case err != nil:
		h.logger.Error("start competition failed", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
		return h.reply(ctx, msg, "Could not start the competition. Please try again.")
	}
	return h.reply(ctx, msg, reporting.RenderStarted(res.Competition, res.Replaced))
}

func (h *Handler) showCompetition(ctx context.Context, msg *Message) error {
	c, status, err := h.competitions.Get(ctx, msg.Chat.GroupID())
	if err != nil {
		h.logger.Error("load competition failed", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
		return h.reply(ctx, msg, "Could not load the competition. Please try again.")
	}
	return h.reply(ctx, msg, reporting.RenderCompetition(c, status, h.clock()))
}

func (h *Handler) showRanking(ctx context.Context, msg *Message) error {
	if err := h.reply(ctx, msg, "Processing ranking..."); err != nil {
		return err
	}

	res, err := h.rankings.GroupRanking(ctx, msg.Chat.GroupID())
	switch {
	case errors.Is(err, ingestion.ErrUpstreamUnavailable):
		h.logger.Warn("ranking upstream unavailable", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
		return h.reply(ctx, msg, "The Solana RPC is unavailable right now. Please try again later.")
	case err != nil:
		h.logger.Error("ranking failed", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
		return h.reply(ctx, msg, "Error while building the ranking.")
	}
	return h.reply(ctx, msg, reporting.RenderResult(res, ""))
}

func (h *Handler) registerWallet(ctx context.Context, msg *Message, args []string) error {
	if len(args) != 1 {
		return h.reply(ctx, msg, "Usage: /registerwallet <wallet_address>")
	}
	if msg.From == nil {
		return h.reply(ctx, msg, "Cannot register a wallet for an anonymous sender.")
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	reg, err := h.competitions.RegisterWallet(ctx, msg.Chat.GroupID(), userID, args[0])
	switch {
	case errors.Is(err, competition.ErrInvalidAddress):
		return h.reply(ctx, msg, fmt.Sprintf("Invalid wallet address: %s", args[0]))
	case err != nil:
		h.logger.Error("register wallet failed", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
		return h.reply(ctx, msg, "Could not register the wallet. Please try again.")
	}
	return h.reply(ctx, msg, fmt.Sprintf("Wallet %s registered.", reporting.ShortAddress(reg.Wallet)))
}

func (h *Handler) reply(ctx context.Context, msg *Message, text string) error {
	if err := h.notifier.SendText(ctx, msg.Chat.ID, text); err != nil {
		h.logger.Warn("send reply failed", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
		return err
	}
	return nil
}
