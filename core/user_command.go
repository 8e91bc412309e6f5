package core

// Operator command parsing. Parsing is total: anything that does not match a
// recognized command form, including a recognized head with a malformed
// argument, becomes Unrecognized — never an error.

import (
	"strconv"
	"strings"
)

// UserCommand is a parsed operator input line.
type UserCommand interface {
	isUserCommand()
}

type CmdPeers struct{}
type CmdBlocks struct{}
type CmdBootstrap struct{}
type CmdHelp struct{}
type CmdUnrecognized struct{}

// CmdDial dials one or more peer multiaddresses.
type CmdDial struct {
	Addrs []string
}

// CmdMsg broadcasts free-form text to the topic.
type CmdMsg struct {
	Text string
}

// CmdBalance queries a balance; a nil Address means the node's own.
type CmdBalance struct {
	Address *Address
}

// CmdTx submits a new transaction.
type CmdTx struct {
	Recipient Address
	Amount    uint64
}

func (CmdPeers) isUserCommand()        {}
func (CmdBlocks) isUserCommand()       {}
func (CmdBootstrap) isUserCommand()    {}
func (CmdHelp) isUserCommand()         {}
func (CmdUnrecognized) isUserCommand() {}
func (CmdDial) isUserCommand()         {}
func (CmdMsg) isUserCommand()          {}
func (CmdBalance) isUserCommand()      {}
func (CmdTx) isUserCommand()           {}

// HelpText is printed for /help.
const HelpText = `
/peers - display peers
/blocks - list blocks
/bootstrap - run bootstrap again
/msg <some msg> - send message to peers
/dial <addr1> [<addr2>] - dial peer by address
/balance [address] - balance for address, own address used if not specified
/tx <addr> <amount> - send transaction to network
/help - this help
`

// ParseUserCommand translates an operator text line into a command.
func ParseUserCommand(line string) UserCommand {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return CmdUnrecognized{}
	}
	head, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)

	switch head {
	case "/peers":
		if rest != "" {
			return CmdUnrecognized{}
		}
		return CmdPeers{}
	case "/blocks":
		if rest != "" {
			return CmdUnrecognized{}
		}
		return CmdBlocks{}
	case "/bootstrap":
		if rest != "" {
			return CmdUnrecognized{}
		}
		return CmdBootstrap{}
	case "/help":
		if rest != "" {
			return CmdUnrecognized{}
		}
		return CmdHelp{}
	case "/msg":
		if rest == "" {
			return CmdUnrecognized{}
		}
		return CmdMsg{Text: rest}
	case "/dial":
		addrs := strings.Fields(rest)
		if len(addrs) == 0 {
			return CmdUnrecognized{}
		}
		return CmdDial{Addrs: addrs}
	case "/balance":
		if rest == "" {
			return CmdBalance{}
		}
		if strings.ContainsAny(rest, " \t") {
			return CmdUnrecognized{}
		}
		addr, err := ParseAddress(rest)
		if err != nil {
			return CmdUnrecognized{}
		}
		return CmdBalance{Address: &addr}
	case "/tx":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return CmdUnrecognized{}
		}
		recipient, err := ParseAddress(fields[0])
		if err != nil {
			return CmdUnrecognized{}
		}
		amount, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return CmdUnrecognized{}
		}
		return CmdTx{Recipient: recipient, Amount: amount}
	default:
		return CmdUnrecognized{}
	}
}
