// Package wa models the raw WhatsApp payload shapes the bot receives from
// its transport. The types here mirror the wire format closely; everything
// above this package works with the normalized message model instead.
package wa

import "strings"

const (
	UserServer      = "s.whatsapp.net"
	GroupServer     = "g.us"
	BroadcastServer = "broadcast"

	// StatusBroadcast is the pseudo-chat used for status updates. Events
	// addressed to it never reach command dispatch.
	StatusBroadcast = "status@broadcast"
)

// IsGroup reports whether jid addresses a group chat. This is the single
// place the @g.us suffix is interpreted.
func IsGroup(jid string) bool {
	return strings.HasSuffix(jid, "@"+GroupServer)
}

// IsNewsletter reports whether jid addresses a newsletter channel.
func IsNewsletter(jid string) bool {
	return strings.HasSuffix(jid, "@newsletter")
}

// IsStatusBroadcast reports whether jid is the status pseudo-chat.
func IsStatusBroadcast(jid string) bool {
	return jid == StatusBroadcast
}

// Bare strips a device suffix ("1234:12@s.whatsapp.net") down to the plain
// user JID. JIDs without a device part pass through unchanged.
func Bare(jid string) string {
	at := strings.IndexByte(jid, '@')
	if at < 0 {
		return jid
	}
	user := jid[:at]
	if colon := strings.IndexByte(user, ':'); colon >= 0 {
		user = user[:colon]
	}
	return user + jid[at:]
}

// User returns the local part of a JID, without server or device suffix.
func User(jid string) string {
	at := strings.IndexByte(jid, '@')
	if at >= 0 {
		jid = jid[:at]
	}
	if colon := strings.IndexByte(jid, ':'); colon >= 0 {
		jid = jid[:colon]
	}
	return jid
}

// UserJID builds a user JID from a bare phone number. Numbers that already
// carry a server suffix pass through unchanged.
func UserJID(number string) string {
	if strings.ContainsRune(number, '@') {
		return number
	}
	return number + "@" + UserServer
}
