package discord

import (
	"log"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Resolver answers the engine's identity questions from configuration: a
// fixed list of master user ids, and support role holders resolved through
// the configured guilds' member lists.
type Resolver struct {
	dg            *discordgo.Session
	masters       []string
	supportGuilds []string
	supportRoles  []string
}

// NewResolver builds a resolver over the session and the configured master
// and support sets.
func NewResolver(dg *discordgo.Session, masters, supportGuilds, supportRoles []string) *Resolver {
	return &Resolver{
		dg:            dg,
		masters:       masters,
		supportGuilds: supportGuilds,
		supportRoles:  supportRoles,
	}
}

// IsMaster reports whether the author is one of the configured masters.
func (r *Resolver) IsMaster(authorID string) bool {
	return slices.Contains(r.masters, authorID)
}

// HasSupportRole reports whether the author holds one of the configured
// support roles in any of the configured guilds. Member lookups go through
// the state cache first.
func (r *Resolver) HasSupportRole(authorID string) bool {
	for _, guildID := range r.supportGuilds {
		member, err := r.dg.State.Member(guildID, authorID)
		if err != nil || member == nil {
			member, err = r.dg.GuildMember(guildID, authorID)
			if err != nil {
				log.Printf("[DEBUG] Could not fetch member %s in guild %s: %v", authorID, guildID, err)
				continue
			}
		}
		for _, roleID := range member.Roles {
			if slices.Contains(r.supportRoles, roleID) {
				return true
			}
		}
	}
	return false
}
