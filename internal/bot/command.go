// Package bot is the Telegram command surface: it parses chat commands,
// drives the competition registry and ranking service, and sends replies.
package bot

import "strings"

// Command names understood by Handler.
const (
	CmdStart            = "start"
	CmdHelp             = "help"
	CmdStartCompetition = "startcompetition"
	CmdCompetition      = "competition"
	CmdRanking          = "ranking"
	CmdRegisterWallet   = "registerwallet"
)

// Command is a parsed "/name@bot arg1 arg2" message.
type Command struct {
	Name    string // lower-cased, without the slash
	Mention string // bot username after '@', empty when absent
	Args    []string
}

// ParseCommand parses text as a bot command. ok is false when text does not
// start with '/' or has no command name.
func ParseCommand(text string) (cmd Command, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}

	head := strings.TrimPrefix(fields[0], "/")
	if name, mention, found := strings.Cut(head, "@"); found {
		head = name
		cmd.Mention = mention
	}
	if head == "" {
		return Command{}, false
	}

	cmd.Name = strings.ToLower(head)
	cmd.Args = fields[1:]
	return cmd, true
}

// AddressedTo reports whether the command targets the bot named username.
// Commands without a mention are addressed to every bot in the chat.
func (c Command) AddressedTo(username string) bool {
	if c.Mention == "" || username == "" {
		return true
	}
	return strings.EqualFold(c.Mention, username)
}
