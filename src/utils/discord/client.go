package discord

import (
	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// RoleManager is the platform role API consumed by the reconciler.
// Both operations are idempotent on the Discord side: granting a role the
// user already holds or revoking an absent one succeeds.
type RoleManager interface {
	GrantRole(guildID, roleID, userID string) error
	RevokeRole(guildID, roleID, userID string) error
}

// Client manages the bot session and implements RoleManager over the REST API.
type Client struct {
	session *discordgo.Session
	log     *logrus.Entry
}

func NewClient(config *config.Config) (self *Client, err error) {
	self = new(Client)
	self.log = logger.NewSublogger("discord")

	self.session, err = discordgo.New("Bot " + config.Discord.Token)
	if err != nil {
		return
	}
	self.session.Client.Timeout = config.Discord.RequestTimeout

	// Role management is REST only, gateway intents stay minimal
	self.session.Identify.Intents = discordgo.IntentsGuilds

	return
}

func (self *Client) Open() (err error) {
	err = self.session.Open()
	if err != nil {
		return
	}
	self.log.WithField("user", self.session.State.User.Username).Info("Discord session opened")
	return
}

func (self *Client) Close() {
	err := self.session.Close()
	if err != nil {
		self.log.WithError(err).Error("Failed to close Discord session")
	}
}

func (self *Client) GrantRole(guildID, roleID, userID string) error {
	return mapError(self.session.GuildMemberRoleAdd(guildID, userID, roleID))
}

func (self *Client) RevokeRole(guildID, roleID, userID string) error {
	return mapError(self.session.GuildMemberRoleRemove(guildID, userID, roleID))
}
