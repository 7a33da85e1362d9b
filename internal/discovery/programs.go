package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// Known DEX program IDs.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// PumpFun is the pump.fun program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	// JupiterV6 is the Jupiter aggregator v6 program ID.
	JupiterV6 = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
)

var programAliases = map[string]string{
	"raydium": RaydiumAMMV4,
	"pumpfun": PumpFun,
	"jupiter": JupiterV6,
}

// ResolvePrograms maps aliases (raydium, pumpfun, jupiter) to program IDs.
// Unknown entries are passed through as literal program IDs. Blank entries are dropped.
func ResolvePrograms(names []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := programAliases[strings.ToLower(name)]
		if !ok {
			if len(name) < 32 || len(name) > 44 {
				return nil, fmt.Errorf("unknown program %q", name)
			}
			id = name
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// programSet reports whether a record referenced one of a fixed set of programs.
type programSet struct {
	ids     map[string]bool
	invokes []string
}

func newProgramSet(ids []string) *programSet {
	if len(ids) == 0 {
		return nil
	}
	ps := &programSet{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		ps.ids[id] = true
		ps.invokes = append(ps.invokes, "Program "+id+" invoke")
	}
	return ps
}

// matches checks the account keys first, then "Program <id> invoke" log lines.
func (ps *programSet) matches(accountKeys []string, logs []string) bool {
	for _, k := range accountKeys {
		if ps.ids[k] {
			return true
		}
	}
	for _, line := range logs {
		for _, prefix := range ps.invokes {
			if strings.HasPrefix(line, prefix) {
				return true
			}
		}
	}
	return false
}
