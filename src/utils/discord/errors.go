package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrMemberGone means the user is no longer part of the guild
	ErrMemberGone = errors.New("member not in guild")

	// ErrRoleGone means the role was deleted on the Discord side
	ErrRoleGone = errors.New("role not found")
)

// mapError converts Discord REST errors into the typed consistency errors
// the reconciler recovers from. Anything else is passed through.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return err
	}

	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
		return ErrMemberGone
	case discordgo.ErrCodeUnknownRole:
		return ErrRoleGone
	}

	return err
}
