package transport

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal"
	"github.com/rs/zerolog"
	wm "go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"

	"raven-md/internal/wa"
)

// EventHandler receives every inbound message event, already converted to
// the internal raw model. Handlers run on the connection's event goroutine;
// anything slow must hand off.
type EventHandler func(ctx context.Context, ev *wa.Event)

// Client is the whatsmeow-backed Transport.
type Client struct {
	wm      *wm.Client
	log     zerolog.Logger
	limiter *rate.Limiter
	handler atomic.Pointer[EventHandler]
	self    string
}

// Config configures the connection.
type Config struct {
	SessionPath string
	SendRate    rate.Limit
	SendBurst   int
}

// NewClient prepares a client; Connect establishes the session.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.SendRate <= 0 {
		cfg.SendRate = 1
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 3
	}
	dbLog := waLog.Stdout("Database", "WARN", false)
	container, err := sqlstore.New("sqlite3", "file:"+cfg.SessionPath+"?_foreign_keys=on", dbLog)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice()
	if err == sql.ErrNoRows {
		device = container.NewDevice()
	} else if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}
	c := &Client{
		wm:      wm.NewClient(device, waLog.Stdout("Client", "WARN", false)),
		log:     log,
		limiter: rate.NewLimiter(cfg.SendRate, cfg.SendBurst),
	}
	return c, nil
}

// OnEvent registers the inbound handler. Safe to call before or after
// Connect; events delivered while no handler is registered are dropped.
func (c *Client) OnEvent(h EventHandler) { c.handler.Store(&h) }

// Connect opens the session, driving QR pairing on first run, and starts
// delivering events to the registered handler.
func (c *Client) Connect(ctx context.Context) error {
	c.wm.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			c.emit(ctx, convertMessage(v))
		case *events.Connected:
			c.log.Info().Msg("connected")
		case *events.Disconnected:
			c.log.Warn().Msg("disconnected")
		case *events.LoggedOut:
			c.log.Error().Msg("logged out, session invalidated")
		}
	})

	if c.wm.Store.ID == nil {
		qrChan, _ := c.wm.GetQRChannel(ctx)
		if err := c.wm.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		for evt := range qrChan {
			switch evt.Event {
			case "code":
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			case "success":
				c.log.Info().Msg("pairing complete")
			}
		}
	} else if err := c.wm.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if id := c.wm.Store.ID; id != nil {
		c.self = wa.UserJID(id.User)
	}
	return nil
}

// emit hands one converted event to the registered handler, if any.
func (c *Client) emit(ctx context.Context, ev *wa.Event) {
	if h := c.handler.Load(); h != nil {
		(*h)(ctx, ev)
	}
}

// Close disconnects the session.
func (c *Client) Close() { c.wm.Disconnect() }

// SelfJID returns the bot's own bare user JID.
func (c *Client) SelfJID() string { return c.self }

// Send delivers one text message, rate limited across all chats.
func (c *Client) Send(ctx context.Context, chatJID string, msg Outgoing) (Receipt, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Receipt{}, err
	}
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return Receipt{}, fmt.Errorf("parse chat jid %q: %w", chatJID, err)
	}
	resp, err := c.wm.SendMessage(ctx, jid, buildMessage(msg))
	if err != nil {
		return Receipt{}, fmt.Errorf("send to %s: %w", chatJID, err)
	}
	return Receipt{ID: resp.ID, Timestamp: resp.Timestamp}, nil
}

// UpdateParticipants applies one membership change to a set of users.
func (c *Client) UpdateParticipants(ctx context.Context, chatJID string, jids []string, action ParticipantAction) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	group, err := types.ParseJID(chatJID)
	if err != nil {
		return fmt.Errorf("parse group jid %q: %w", chatJID, err)
	}
	users := make([]types.JID, 0, len(jids))
	for _, j := range jids {
		u, err := types.ParseJID(wa.Bare(j))
		if err != nil {
			return fmt.Errorf("parse participant jid %q: %w", j, err)
		}
		users = append(users, u)
	}
	var change wm.ParticipantChange
	switch action {
	case ActionRemove:
		change = wm.ParticipantChangeRemove
	case ActionPromote:
		change = wm.ParticipantChangePromote
	case ActionDemote:
		change = wm.ParticipantChangeDemote
	default:
		return fmt.Errorf("unknown participant action %q", action)
	}
	if _, err := c.wm.UpdateGroupParticipants(group, users, change); err != nil {
		return fmt.Errorf("%s in %s: %w", action, chatJID, err)
	}
	return nil
}

// GroupMetadata fetches a group snapshot from the server.
func (c *Client) GroupMetadata(ctx context.Context, chatJID string) (*wa.GroupMetadata, error) {
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return nil, fmt.Errorf("parse group jid %q: %w", chatJID, err)
	}
	info, err := c.wm.GetGroupInfo(jid)
	if err != nil {
		return nil, fmt.Errorf("group metadata %s: %w", chatJID, err)
	}
	meta := &wa.GroupMetadata{
		ID:           chatJID,
		Subject:      info.Name,
		Participants: make([]wa.Participant, 0, len(info.Participants)),
	}
	for _, p := range info.Participants {
		rank := ""
		if p.IsSuperAdmin {
			rank = "superadmin"
		} else if p.IsAdmin {
			rank = "admin"
		}
		meta.Participants = append(meta.Participants, wa.Participant{
			ID:    wa.Bare(p.JID.String()),
			Admin: rank,
		})
	}
	return meta, nil
}

// buildMessage maps an Outgoing to the wire shape. Plain text without
// mentions or quote goes out as a bare conversation.
func buildMessage(msg Outgoing) *waProto.Message {
	if len(msg.Mentions) == 0 && msg.QuoteID == "" {
		return &waProto.Message{Conversation: proto.String(msg.Text)}
	}
	ext := &waProto.ExtendedTextMessage{Text: proto.String(msg.Text)}
	info := &waProto.ContextInfo{}
	if len(msg.Mentions) > 0 {
		info.MentionedJID = msg.Mentions
	}
	if msg.QuoteID != "" {
		info.StanzaID = proto.String(msg.QuoteID)
		info.Participant = proto.String(msg.QuoteSender)
		quotedText := ""
		if msg.Quoted != nil {
			quotedText = msg.Quoted.Conversation
		}
		info.QuotedMessage = &waProto.Message{Conversation: proto.String(quotedText)}
	}
	ext.ContextInfo = info
	return &waProto.Message{ExtendedTextMessage: ext}
}

// convertMessage flattens a whatsmeow event into the internal raw model.
func convertMessage(v *events.Message) *wa.Event {
	ev := &wa.Event{
		Key: wa.Key{
			RemoteJID: wa.Bare(v.Info.Chat.String()),
			FromMe:    v.Info.IsFromMe,
			ID:        v.Info.ID,
		},
		PushName:  v.Info.PushName,
		Timestamp: v.Info.Timestamp.Unix(),
		Message:   convertPayload(v.Message, 0),
	}
	if v.Info.IsGroup {
		ev.Key.Participant = wa.Bare(v.Info.Sender.String())
	}
	return ev
}

// convertPayload maps the proto message tree. depth guards quoted-message
// recursion; quotes below the first level are dropped.
func convertPayload(m *waProto.Message, depth int) *wa.Payload {
	if m == nil {
		return nil
	}
	p := &wa.Payload{Conversation: m.GetConversation()}
	if et := m.GetExtendedTextMessage(); et != nil {
		p.ExtendedText = &wa.ExtendedText{
			Text:        et.GetText(),
			ContextInfo: convertContext(et.GetContextInfo(), depth),
		}
	}
	if im := m.GetImageMessage(); im != nil {
		p.Image = &wa.Media{
			Caption:     im.GetCaption(),
			Mimetype:    im.GetMimetype(),
			FileLength:  im.GetFileLength(),
			Width:       im.GetWidth(),
			Height:      im.GetHeight(),
			ContextInfo: convertContext(im.GetContextInfo(), depth),
		}
	}
	if vm := m.GetVideoMessage(); vm != nil {
		p.Video = &wa.Media{
			Caption:     vm.GetCaption(),
			Mimetype:    vm.GetMimetype(),
			FileLength:  vm.GetFileLength(),
			Width:       vm.GetWidth(),
			Height:      vm.GetHeight(),
			Seconds:     vm.GetSeconds(),
			ContextInfo: convertContext(vm.GetContextInfo(), depth),
		}
	}
	if am := m.GetAudioMessage(); am != nil {
		p.Audio = &wa.Media{
			Mimetype:    am.GetMimetype(),
			FileLength:  am.GetFileLength(),
			Seconds:     am.GetSeconds(),
			ContextInfo: convertContext(am.GetContextInfo(), depth),
		}
	}
	if sm := m.GetStickerMessage(); sm != nil {
		p.Sticker = &wa.Media{
			Mimetype:    sm.GetMimetype(),
			FileLength:  sm.GetFileLength(),
			Width:       sm.GetWidth(),
			Height:      sm.GetHeight(),
			Animated:    sm.GetIsAnimated(),
			ContextInfo: convertContext(sm.GetContextInfo(), depth),
		}
	}
	if dm := m.GetDocumentMessage(); dm != nil {
		p.Document = &wa.Document{
			Caption:     dm.GetCaption(),
			Title:       dm.GetTitle(),
			Mimetype:    dm.GetMimetype(),
			FileLength:  dm.GetFileLength(),
			ContextInfo: convertContext(dm.GetContextInfo(), depth),
		}
	}
	if br := m.GetButtonsResponseMessage(); br != nil {
		p.ButtonsResponse = &wa.ButtonsResponse{
			SelectedButtonID:    br.GetSelectedButtonID(),
			SelectedDisplayText: br.GetSelectedDisplayText(),
			ContextInfo:         convertContext(br.GetContextInfo(), depth),
		}
	}
	if lr := m.GetListResponseMessage(); lr != nil {
		p.ListResponse = &wa.ListResponse{
			Title:       lr.GetTitle(),
			ContextInfo: convertContext(lr.GetContextInfo(), depth),
		}
		if sel := lr.GetSingleSelectReply(); sel != nil {
			p.ListResponse.SingleSelectReply = &wa.SelectReply{SelectedRowID: sel.GetSelectedRowID()}
		}
	}
	if tr := m.GetTemplateButtonReplyMessage(); tr != nil {
		p.TemplateButtonReply = &wa.TemplateButtonReply{
			SelectedID:          tr.GetSelectedID(),
			SelectedDisplayText: tr.GetSelectedDisplayText(),
			ContextInfo:         convertContext(tr.GetContextInfo(), depth),
		}
	}
	if pm := m.GetProtocolMessage(); pm != nil {
		p.ProtocolStub = &wa.ProtocolStub{Type: pm.GetType().String()}
	}
	return p
}

func convertContext(ci *waProto.ContextInfo, depth int) *wa.ContextInfo {
	if ci == nil {
		return nil
	}
	out := &wa.ContextInfo{
		StanzaID:     ci.GetStanzaId(),
		Participant:  wa.Bare(ci.GetParticipant()),
		RemoteJID:    ci.GetRemoteJid(),
		MentionedJID: ci.GetMentionedJid(),
		Expiration:   ci.GetExpiration(),
	}
	if q := ci.GetQuotedMessage(); q != nil && depth == 0 {
		out.Quoted = convertPayload(q, depth+1)
	}
	return out
}

var _ Transport = (*Client)(nil)
