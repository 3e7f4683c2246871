package cart

import (
	"fmt"

	"github.com/fjod/fyz_store/internal/domain"
)

type CommandKind int

const (
	CommandAdd CommandKind = iota + 1
	CommandRemove
	CommandSetQuantity
	CommandClear
)

func (k CommandKind) String() string {
	switch k {
	case CommandAdd:
		return "add"
	case CommandRemove:
		return "remove"
	case CommandSetQuantity:
		return "set_quantity"
	case CommandClear:
		return "clear"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

func ParseCommandKind(s string) (CommandKind, error) {
	switch s {
	case "add":
		return CommandAdd, nil
	case "remove":
		return CommandRemove, nil
	case "set_quantity":
		return CommandSetQuantity, nil
	case "clear":
		return CommandClear, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Command is a single user intent against the cart.
// Item is used by CommandAdd, ItemID by Remove and SetQuantity.
type Command struct {
	Kind     CommandKind
	Item     domain.CartLineItem
	ItemID   string
	Quantity int
}
