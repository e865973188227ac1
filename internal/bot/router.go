package bot

import (
	"bytes"
	"context"
	"time"

	"github.com/aristath/aitrader/internal/discord"
	"github.com/aristath/aitrader/internal/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Handler timeouts. Manual trading waits for the whole agent session.
const (
	messageTimeout     = 10 * time.Minute
	interactionTimeout = 30 * time.Second
)

// Router feeds discordgo gateway events to the controller
type Router struct {
	controller *Controller
	log        zerolog.Logger
}

// NewRouter creates a new router
func NewRouter(controller *Controller, log zerolog.Logger) *Router {
	return &Router{
		controller: controller,
		log:        log.With().Str("component", "bot_router").Logger(),
	}
}

// Register attaches the gateway handlers to a session
func (rt *Router) Register(s *discordgo.Session) {
	s.AddHandler(rt.onReady)
	s.AddHandler(rt.onMessageCreate)
	s.AddHandler(rt.onInteractionCreate)
}

func (rt *Router) onReady(s *discordgo.Session, r *discordgo.Ready) {
	rt.log.Info().Str("user", r.User.String()).Int("guilds", len(r.Guilds)).Msg("Logged in to Discord")
}

func (rt *Router) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	if err := rt.controller.HandleMessage(ctx, toMessage(m.Message), &messageResponder{session: s, source: m.Message}); err != nil {
		rt.log.Error().Err(err).
			Str("author_id", m.Author.ID).
			Str("channel_id", m.ChannelID).
			Msg("Failed to handle message")
	}
}

func (rt *Router) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	in, ok := toInteraction(i.Interaction)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	if err := rt.controller.HandleInteraction(ctx, in, &interactionResponder{session: s, interaction: i.Interaction}); err != nil {
		rt.log.Error().Err(err).
			Str("custom_id", in.CustomID).
			Str("user_id", in.UserID).
			Msg("Failed to handle interaction")
	}
}

func toMessage(m *discordgo.Message) Message {
	msg := Message{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	for _, u := range m.Mentions {
		msg.Mentions = append(msg.Mentions, u.ID)
	}
	return msg
}

func toInteraction(i *discordgo.Interaction) (Interaction, bool) {
	in := Interaction{GuildID: i.GuildID, ChannelID: i.ChannelID}
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return in, false
	}
	in.UserID = user.ID
	in.Username = user.Username

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		in.Kind = InteractionButton
		in.CustomID = i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		in.Kind = InteractionModalSubmit
		in.CustomID = data.CustomID
		in.Fields = modalFields(data.Components)
	default:
		return in, false
	}
	return in, true
}

func modalFields(rows []discordgo.MessageComponent) map[string]string {
	fields := make(map[string]string)
	for _, row := range rows {
		actions, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range actions.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				fields[input.CustomID] = input.Value
			}
		}
	}
	return fields
}

func buttonRow(buttons []Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		style := discordgo.PrimaryButton
		if b.Danger {
			style = discordgo.DangerButton
		}
		row.Components = append(row.Components, discordgo.Button{CustomID: b.CustomID, Label: b.Label, Style: style})
	}
	return []discordgo.MessageComponent{row}
}

func files(attachments []Attachment) []*discordgo.File {
	out := make([]*discordgo.File, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, &discordgo.File{Name: a.Name, ContentType: "text/plain", Reader: bytes.NewReader(a.Data)})
	}
	return out
}

type messageResponder struct {
	session *discordgo.Session
	source  *discordgo.Message
}

func (r *messageResponder) Reply(ctx context.Context, reply Reply) (*domain.Message, error) {
	sent, err := r.session.ChannelMessageSendComplex(r.source.ChannelID, &discordgo.MessageSend{
		Content:    discord.Truncate(reply.Content),
		Components: buttonRow(reply.Buttons),
		Files:      files(reply.Files),
		Reference:  r.source.Reference(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &domain.Message{ID: sent.ID, ChannelID: sent.ChannelID, Content: sent.Content}, nil
}

func (r *messageResponder) Edit(ctx context.Context, msg *domain.Message, reply Reply) error {
	edit := discordgo.NewMessageEdit(msg.ChannelID, msg.ID).SetContent(discord.Truncate(reply.Content))
	edit.Files = files(reply.Files)
	_, err := r.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}

type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (r *interactionResponder) Respond(ctx context.Context, reply Reply) error {
	data := &discordgo.InteractionResponseData{
		Content:    discord.Truncate(reply.Content),
		Components: buttonRow(reply.Buttons),
		Files:      files(reply.Files),
	}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
}

func (r *interactionResponder) ShowModal(ctx context.Context, modal Modal) error {
	rows := make([]discordgo.MessageComponent, 0, len(modal.Fields))
	for _, f := range modal.Fields {
		style := discordgo.TextInputShort
		if f.Paragraph {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    f.CustomID,
				Label:       f.Label,
				Style:       style,
				Placeholder: f.Placeholder,
				Value:       f.Value,
				Required:    f.Required,
				MinLength:   f.MinLength,
				MaxLength:   f.MaxLength,
			},
		}})
	}
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   modal.CustomID,
			Title:      modal.Title,
			Components: rows,
		},
	}, discordgo.WithContext(ctx))
}
