package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/tabdo/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeToggle Type = "toggle"
	TypeRemove Type = "rm"
	TypeClear  Type = "clear"
	TypeBadge  Type = "badge"
	TypeGoto   Type = "goto"
	TypeDay    Type = "day"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	Text string
}

// IndexArgs addresses a task by its 1-based position in the list.
type IndexArgs struct {
	Position int
}

type BadgeArgs struct {
	Enabled bool
}

type GotoArgs struct {
	Year  int
	Month time.Month
}

type DayArgs struct {
	Date model.Date
}

type Command struct {
	Type  Type
	Raw   string
	Add   *AddArgs
	Index *IndexArgs
	Badge *BadgeArgs
	Goto  *GotoArgs
	Day   *DayArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeToggle, TypeRemove:
		return parseIndex(input, Type(head), args)
	case "delete", "del":
		return parseIndex(input, TypeRemove, args)
	case TypeClear:
		return Command{Type: TypeClear, Raw: input}, nil
	case TypeBadge:
		return parseBadge(input, args)
	case TypeGoto:
		return parseGoto(input, args)
	case TypeDay:
		return parseDay(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires task text"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Text: text}}, nil
}

func parseIndex(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a task number", typ)}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid task number: %s", args[0])}
	}
	return Command{Type: typ, Raw: raw, Index: &IndexArgs{Position: n}}, nil
}

func parseBadge(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "badge requires on or off"}
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		return Command{Type: TypeBadge, Raw: raw, Badge: &BadgeArgs{Enabled: true}}, nil
	case "off", "false", "0":
		return Command{Type: TypeBadge, Raw: raw, Badge: &BadgeArgs{Enabled: false}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("badge expects on or off, got %s", args[0])}
	}
}

func parseGoto(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "goto requires YYYY-MM"}
	}
	t, err := time.Parse("2006-01", args[0])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid month: %s", args[0])}
	}
	return Command{Type: TypeGoto, Raw: raw, Goto: &GotoArgs{Year: t.Year(), Month: t.Month()}}, nil
}

func parseDay(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "day requires YYYY-MM-DD"}
	}
	d, err := model.ParseDate(args[0])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid date: %s", args[0])}
	}
	return Command{Type: TypeDay, Raw: raw, Day: &DayArgs{Date: d}}, nil
}
