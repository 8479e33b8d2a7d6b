package wa

// Event is one raw inbound message event as delivered by the transport.
// The shape follows the multi-device wire format: a key, a few info fields
// and a deeply nested payload in which exactly one branch is set.
type Event struct {
	Key       Key      `json:"key"`
	PushName  string   `json:"pushName,omitempty"`
	Timestamp int64    `json:"messageTimestamp,omitempty"`
	Message   *Payload `json:"message,omitempty"`
}

// Key identifies a message within a chat.
type Key struct {
	RemoteJID   string `json:"remoteJid"`
	FromMe      bool   `json:"fromMe"`
	ID          string `json:"id"`
	Participant string `json:"participant,omitempty"`
}

// Kind is the coarse classification of a payload, decided once before any
// field extraction.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindMedia
	KindInteractive
	KindStub
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMedia:
		return "media"
	case KindInteractive:
		return "interactive"
	case KindStub:
		return "stub"
	default:
		return "unknown"
	}
}

// Payload is the nested message body. At most one of the branch pointers is
// non-nil; Conversation is the plain-text branch.
type Payload struct {
	Conversation        string               `json:"conversation,omitempty"`
	ExtendedText        *ExtendedText        `json:"extendedTextMessage,omitempty"`
	Image               *Media               `json:"imageMessage,omitempty"`
	Video               *Media               `json:"videoMessage,omitempty"`
	Audio               *Media               `json:"audioMessage,omitempty"`
	Sticker             *Media               `json:"stickerMessage,omitempty"`
	Document            *Document            `json:"documentMessage,omitempty"`
	ButtonsResponse     *ButtonsResponse     `json:"buttonsResponseMessage,omitempty"`
	ListResponse        *ListResponse        `json:"listResponseMessage,omitempty"`
	TemplateButtonReply *TemplateButtonReply `json:"templateButtonReplyMessage,omitempty"`
	ProtocolStub        *ProtocolStub        `json:"protocolMessage,omitempty"`
}

// ExtendedText carries text with link previews, mentions or a quote.
type ExtendedText struct {
	Text        string       `json:"text,omitempty"`
	ContextInfo *ContextInfo `json:"contextInfo,omitempty"`
}

// Media covers image, video, audio and sticker branches.
type Media struct {
	Caption     string       `json:"caption,omitempty"`
	Mimetype    string       `json:"mimetype,omitempty"`
	FileLength  uint64       `json:"fileLength,omitempty"`
	Width       uint32       `json:"width,omitempty"`
	Height      uint32       `json:"height,omitempty"`
	Seconds     uint32       `json:"seconds,omitempty"`
	Animated    bool         `json:"isAnimated,omitempty"`
	ContextInfo *ContextInfo `json:"contextInfo,omitempty"`
}

// Document is a file attachment; Title doubles as its display name.
type Document struct {
	Caption     string       `json:"caption,omitempty"`
	Title       string       `json:"title,omitempty"`
	Mimetype    string       `json:"mimetype,omitempty"`
	FileLength  uint64       `json:"fileLength,omitempty"`
	ContextInfo *ContextInfo `json:"contextInfo,omitempty"`
}

// ButtonsResponse is the reply to a button prompt.
type ButtonsResponse struct {
	SelectedButtonID    string       `json:"selectedButtonId,omitempty"`
	SelectedDisplayText string       `json:"selectedDisplayText,omitempty"`
	ContextInfo         *ContextInfo `json:"contextInfo,omitempty"`
}

// ListResponse is the reply to a list prompt.
type ListResponse struct {
	Title             string       `json:"title,omitempty"`
	SingleSelectReply *SelectReply `json:"singleSelectReply,omitempty"`
	ContextInfo       *ContextInfo `json:"contextInfo,omitempty"`
}

// SelectReply holds the chosen row of a list reply.
type SelectReply struct {
	SelectedRowID string `json:"selectedRowId,omitempty"`
}

// TemplateButtonReply is the reply to a template button prompt.
type TemplateButtonReply struct {
	SelectedID          string       `json:"selectedId,omitempty"`
	SelectedDisplayText string       `json:"selectedDisplayText,omitempty"`
	ContextInfo         *ContextInfo `json:"contextInfo,omitempty"`
}

// ProtocolStub marks protocol/system events (history sync, revokes, app
// state keys). Stubs never carry user-visible content.
type ProtocolStub struct {
	Type string `json:"type,omitempty"`
}

// ContextInfo carries quote and mention metadata attached to a branch.
type ContextInfo struct {
	StanzaID     string   `json:"stanzaId,omitempty"`
	Participant  string   `json:"participant,omitempty"`
	RemoteJID    string   `json:"remoteJid,omitempty"`
	MentionedJID []string `json:"mentionedJid,omitempty"`
	Expiration   uint32   `json:"expiration,omitempty"`
	Quoted       *Payload `json:"quotedMessage,omitempty"`
}

// Kind classifies the payload. Classification happens before extraction so
// that the extraction logic can stay exhaustive per variant.
func (p *Payload) Kind() Kind {
	switch {
	case p == nil:
		return KindUnknown
	case p.ProtocolStub != nil:
		return KindStub
	case p.Conversation != "" || p.ExtendedText != nil:
		return KindText
	case p.Image != nil || p.Video != nil || p.Audio != nil || p.Sticker != nil || p.Document != nil:
		return KindMedia
	case p.ButtonsResponse != nil || p.ListResponse != nil || p.TemplateButtonReply != nil:
		return KindInteractive
	default:
		return KindUnknown
	}
}

// Context returns the context info of whichever branch is set, or nil.
func (p *Payload) Context() *ContextInfo {
	if p == nil {
		return nil
	}
	switch {
	case p.ExtendedText != nil:
		return p.ExtendedText.ContextInfo
	case p.Image != nil:
		return p.Image.ContextInfo
	case p.Video != nil:
		return p.Video.ContextInfo
	case p.Audio != nil:
		return p.Audio.ContextInfo
	case p.Sticker != nil:
		return p.Sticker.ContextInfo
	case p.Document != nil:
		return p.Document.ContextInfo
	case p.ButtonsResponse != nil:
		return p.ButtonsResponse.ContextInfo
	case p.ListResponse != nil:
		return p.ListResponse.ContextInfo
	case p.TemplateButtonReply != nil:
		return p.TemplateButtonReply.ContextInfo
	default:
		return nil
	}
}

// GroupMetadata is the raw group snapshot returned by the transport.
type GroupMetadata struct {
	ID           string        `json:"id"`
	Subject      string        `json:"subject,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
}

// Participant is one group member entry. Admin is "", "admin" or
// "superadmin"; entries without an ID are malformed and get dropped during
// normalization.
type Participant struct {
	ID    string `json:"id"`
	Admin string `json:"admin,omitempty"`
}

// IsAdmin reports whether the participant holds any admin rank.
func (p Participant) IsAdmin() bool {
	return p.Admin == "admin" || p.Admin == "superadmin"
}
