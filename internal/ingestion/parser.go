package ingestion

import (
	"regexp"
	"strconv"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-whale-watch/internal/domain"
)

// PumpFunProgram is the pump.fun bonding curve program ID.
const PumpFunProgram = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

const lamportsPerSol = 1_000_000_000

// LogParser extracts trading events from pump.fun transaction logs.
// One transaction can carry multiple instructions and therefore yield
// multiple events.
type LogParser struct {
	program string

	buyPattern       *regexp.Regexp
	sellPattern      *regexp.Regexp
	createPattern    *regexp.Regexp
	mintPattern      *regexp.Regexp
	solAmountPattern *regexp.Regexp
}

// NewLogParser creates a parser for the given launch program.
func NewLogParser(program string) *LogParser {
	if program == "" {
		program = PumpFunProgram
	}
	return &LogParser{
		program:          program,
		buyPattern:       regexp.MustCompile(`Program log: Instruction: Buy`),
		sellPattern:      regexp.MustCompile(`Program log: Instruction: Sell`),
		createPattern:    regexp.MustCompile(`Program log: Instruction: Create`),
		mintPattern:      regexp.MustCompile(`mint=([1-9A-HJ-NP-Za-km-z]+)`),
		solAmountPattern: regexp.MustCompile(`sol_amount[=:]?\s*(\d+)`),
	}
}

// Parse walks the transaction logs and emits one event per recognized
// instruction. feePayer is the transaction's first account key and is
// attributed as the acting wallet; blockTime is in epoch milliseconds.
// Instructions without a resolvable mint, or with malformed addresses,
// are skipped.
func (p *LogParser) Parse(logs []string, signature, feePayer string, blockTime int64) []*domain.Event {
	var events []*domain.Event
	var currentMint string
	var pendingLamports uint64
	inProgram := false

	invokeMarker := "Program " + p.program + " invoke"
	successMarker := "Program " + p.program + " success"
	failedMarker := "Program " + p.program + " failed"

	for _, line := range logs {
		if strings.Contains(line, invokeMarker) {
			inProgram = true
			pendingLamports = 0
			continue
		}
		if strings.Contains(line, successMarker) || strings.Contains(line, failedMarker) {
			inProgram = false
			currentMint = ""
			pendingLamports = 0
			continue
		}
		if !inProgram {
			continue
		}

		if m := p.mintPattern.FindStringSubmatch(line); m != nil {
			currentMint = m[1]
		}
		if m := p.solAmountPattern.FindStringSubmatch(line); m != nil {
			if parsed, err := strconv.ParseUint(m[1], 10, 64); err == nil {
				pendingLamports = parsed
			}
		}

		var kind domain.EventKind
		switch {
		case p.createPattern.MatchString(line):
			kind = domain.EventTokenCreated
		case p.buyPattern.MatchString(line):
			kind = domain.EventBuy
		case p.sellPattern.MatchString(line):
			kind = domain.EventSell
		default:
			continue
		}

		if !ValidMintAddress(currentMint) {
			continue
		}
		if kind != domain.EventTokenCreated && !ValidWalletAddress(feePayer) {
			continue
		}

		// Siblings from one transaction share the signature; the index
		// keeps their dedup identities distinct.
		event := &domain.Event{
			Kind:      kind,
			Signature: signature,
			Index:     len(events),
			TokenMint: currentMint,
			BlockTime: blockTime,
		}
		if kind != domain.EventTokenCreated {
			event.WalletAddress = feePayer
			event.Amount = float64(pendingLamports) / lamportsPerSol
		}
		events = append(events, event)
		pendingLamports = 0
	}

	return events
}

// ValidMintAddress reports whether addr is a well-formed Solana account
// address: base58, decoding to exactly 32 bytes. Mints may be program
// derived, so no curve check applies.
func ValidMintAddress(addr string) bool {
	if addr == "" {
		return false
	}
	decoded, err := base58.Decode(addr)
	return err == nil && len(decoded) == 32
}

// ValidWalletAddress reports whether addr is a plausible signing wallet:
// a well-formed address whose bytes decode to a point on the ed25519
// curve. Program derived addresses are deliberately off-curve and fail
// this check, which filters them out of wallet attribution.
func ValidWalletAddress(addr string) bool {
	if addr == "" {
		return false
	}
	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
