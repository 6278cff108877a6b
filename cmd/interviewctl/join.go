package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/call"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/roomclient"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/ui"
)

var (
	flagJoinPasskey string
	flagJoinName    string
	flagJoinRole    string
	flagJoinCall    bool
	flagJoinCodec   string
	flagJoinSTUN    []string
	flagJoinTURN    []string
	flagJoinRelay   bool
)

var joinCmd = &cobra.Command{
	Use:     "join <room-id|url>",
	Aliases: []string{"j"},
	Short:   "Take a seat in an interview room",
	Long: `Join a room from the terminal. Lines typed on stdin are sent as chat.

Commands:
  /code <text>     replace the shared code (\n for newlines)
  /notes <text>    replace the shared notes
  /video on|off    announce the video state
  /audio on|off    announce the audio state
  /call <text>     send text over the call's data channel (needs --call)
  /quit            leave the room

Examples:
  interviewctl join R1 --passkey abc --name Sam --role interviewer
  interviewctl join http://localhost:8080/rooms/R1 -p abc -n Lee --call`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		subprotocol, err := subprotocolFor(flagJoinCodec)
		if err != nil {
			return err
		}
		if flagJoinRelay && len(flagJoinTURN) == 0 {
			return errors.New("cannot force relay mode without a TURN server")
		}
		return joinRoom(cmd.Context(), roomID, subprotocol, os.Stdin)
	},
}

var errRoomClosed = errors.New("room closed")

type command struct {
	kind    string
	text    string
	enabled bool
}

const (
	cmdChat  = "chat"
	cmdCode  = "code"
	cmdNotes = "notes"
	cmdVideo = "video"
	cmdAudio = "audio"
	cmdCall  = "call"
	cmdQuit  = "quit"
)

func joinRoom(ctx context.Context, roomID, subprotocol string, input io.Reader) error {
	wsURL, err := newAPI().WebSocketURL()
	if err != nil {
		return err
	}

	fmt.Fprintln(ui.Output)
	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	client, err := roomclient.Dial(dialCtx, wsURL, subprotocol)
	cancel()
	stopSpinner()
	if err != nil {
		return err
	}
	defer client.Close()
	slog.Debug("connected", "conn", client.ID, "subprotocol", client.Subprotocol())

	joinCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	joined, err := client.Join(joinCtx, roomID, flagJoinPasskey, protocol.User{Name: flagJoinName, Role: flagJoinRole})
	cancel()
	if err != nil {
		return fmt.Errorf("join room %s: %w", roomID, err)
	}

	s := &seat{
		client:   client,
		roomID:   roomID,
		self:     joined.User,
		withCall: flagJoinCall,
		ice: call.ICEConfig{
			STUN:       flagJoinSTUN,
			TURN:       flagJoinTURN,
			TURNUser:   v.GetString(keyTURNUser),
			TURNPass:   v.GetString(keyTURNPass),
			ForceRelay: flagJoinRelay,
		},
	}
	defer s.hangUp()

	fmt.Fprintln(ui.Output, ui.RoomBanner(joined.Room, joined.User))
	for _, m := range joined.Room.Messages {
		fmt.Fprintln(ui.Output, ui.ChatLine(m, s.mine(m)))
	}
	for _, p := range joined.Room.Participants {
		if p.ConnectionID != s.self.ConnectionID {
			s.other = p.ConnectionID
		}
	}
	if s.other == "" {
		ui.PrintInfo(ui.IconWaiting + " Waiting for the other participant...")
	}

	lines := make(chan string)
	go scanLines(input, lines)

	for {
		select {
		case <-ctx.Done():
			client.Leave()
			return nil

		case in, ok := <-client.Incoming():
			if !ok {
				return roomclient.ErrClosed
			}
			if err := s.handleEvent(in); err != nil {
				if errors.Is(err, errRoomClosed) {
					return nil
				}
				return err
			}

		case line, ok := <-lines:
			if !ok {
				client.Leave()
				return nil
			}
			c, err := parseLine(line)
			if err != nil {
				ui.PrintWarning(err.Error())
				continue
			}
			if c.kind == cmdQuit {
				client.Leave()
				ui.PrintInfo("Left room " + roomID)
				return nil
			}
			if err := s.run(c); err != nil {
				ui.PrintWarning(err.Error())
			}

		case text := <-s.callMessages():
			fmt.Fprintf(ui.Output, "%s %s\n", ui.IconCall, text)

		case <-s.callOpened():
			s.opened = true
			ui.PrintSuccess(ui.IconCall + " Call connected")

		case <-s.callFailed():
			ui.PrintWarning("Call dropped")
			s.hangUp()
		}
	}
}

// seat is this terminal's place in the room.
type seat struct {
	client   *roomclient.Client
	roomID   string
	self     interview.Participant
	other    string
	withCall bool
	ice      call.ICEConfig

	peer   *call.Peer
	opened bool
}

func (s *seat) mine(m interview.Message) bool {
	return m.SenderName == s.self.Name && m.SenderRole == s.self.Role
}

func (s *seat) handleEvent(in *protocol.Inbound) error {
	switch in.Type {
	case protocol.EventUserJoined:
		var p protocol.Presence
		if err := in.Bind(&p); err != nil {
			return nil
		}
		s.other = p.User.ConnectionID
		ui.PrintInfof("%s %s joined as %s", ui.IconPeer, p.User.Name, p.User.Role)
		if s.withCall {
			// The participant already seated makes the offer.
			if err := s.dial(true); err != nil {
				ui.PrintWarning(err.Error())
			}
		}

	case protocol.EventUserLeft:
		var p protocol.Presence
		if err := in.Bind(&p); err != nil {
			return nil
		}
		s.other = ""
		s.hangUp()
		ui.PrintInfof("%s %s left the room", ui.IconPeer, p.User.Name)

	case protocol.EventNewMessage:
		var nm protocol.NewMessage
		if err := in.Bind(&nm); err != nil {
			return nil
		}
		fmt.Fprintln(ui.Output, ui.ChatLine(nm.Message, s.mine(nm.Message)))

	case protocol.EventCodeUpdated:
		var u protocol.CodeUpdated
		if err := in.Bind(&u); err != nil {
			return nil
		}
		fmt.Fprintf(ui.Output, "%s Code updated:\n%s\n", ui.IconCode, u.Code)

	case protocol.EventNotesUpdated:
		var u protocol.NotesUpdated
		if err := in.Bind(&u); err != nil {
			return nil
		}
		fmt.Fprintf(ui.Output, "%s Notes updated:\n%s\n", ui.IconNotes, u.Notes)

	case protocol.EventMediaToggle:
		var m protocol.MediaToggled
		if err := in.Bind(&m); err != nil {
			return nil
		}
		state := "off"
		if m.Enabled {
			state = "on"
		}
		ui.PrintInfof("Other participant turned %s %s", m.Type, state)

	case protocol.EventRoomError:
		var re protocol.RoomError
		if err := in.Bind(&re); err == nil {
			ui.PrintWarning("Room error: " + re.Reason)
		}

	case protocol.EventRoomClosed:
		var rc protocol.RoomClosed
		in.Bind(&rc)
		ui.PrintWarning(fmt.Sprintf("%s Room closed (%s)", ui.IconTime, rc.Reason))
		return errRoomClosed

	default:
		kind, ok := protocol.SignalKindOf(in.Type)
		if !ok {
			slog.Debug("ignoring event", "event", in.Type)
			return nil
		}
		s.handleSignal(kind, in)
	}
	return nil
}

func (s *seat) handleSignal(kind protocol.SignalKind, in *protocol.Inbound) {
	if !s.withCall {
		return
	}
	var sig protocol.Signal
	if err := in.Bind(&sig); err != nil {
		slog.Debug("bad signal", "event", in.Type, "error", err)
		return
	}
	if sig.From != "" {
		s.other = sig.From
	}
	if s.peer == nil {
		if err := s.dial(false); err != nil {
			ui.PrintWarning(err.Error())
			return
		}
	}
	if err := s.peer.HandleSignal(kind, sig.Payload(kind)); err != nil {
		slog.Debug("signal rejected", "event", in.Type, "error", err)
	}
}

// dial starts a call with the other participant.
func (s *seat) dial(offer bool) error {
	s.hangUp()

	to := s.other
	peer, err := call.NewPeer(s.ice, func(kind protocol.SignalKind, payload any) error {
		return s.client.Signal(kind, payload, to)
	})
	if err != nil {
		return err
	}
	s.peer = peer
	if offer {
		ui.PrintInfo(ui.IconCall + " Calling...")
		return peer.Offer()
	}
	return nil
}

func (s *seat) hangUp() {
	if s.peer != nil {
		s.peer.Close()
		s.peer = nil
		s.opened = false
	}
}

func (s *seat) callMessages() <-chan string {
	if s.peer == nil {
		return nil
	}
	return s.peer.Messages
}

func (s *seat) callOpened() <-chan struct{} {
	if s.peer == nil || s.opened {
		return nil
	}
	return s.peer.Open
}

func (s *seat) callFailed() <-chan struct{} {
	if s.peer == nil {
		return nil
	}
	return s.peer.Failed
}

func (s *seat) run(c command) error {
	switch c.kind {
	case cmdChat:
		return s.client.Chat(s.roomID, c.text)
	case cmdCode:
		return s.client.UpdateCode(s.roomID, c.text)
	case cmdNotes:
		return s.client.UpdateNotes(s.roomID, c.text)
	case cmdVideo, cmdAudio:
		return s.client.ToggleMedia(s.roomID, c.kind, c.enabled)
	case cmdCall:
		if s.peer == nil {
			return errors.New("no call in progress")
		}
		return s.peer.Send(c.text)
	}
	return nil
}

// parseLine turns one line of terminal input into a command.
func parseLine(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		if line == "" {
			return command{}, errors.New("nothing to send")
		}
		return command{kind: cmdChat, text: line}, nil
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "quit", "exit", "q":
		return command{kind: cmdQuit}, nil
	case cmdCode, cmdNotes:
		return command{kind: name, text: strings.ReplaceAll(rest, `\n`, "\n")}, nil
	case cmdVideo, cmdAudio:
		switch rest {
		case "on":
			return command{kind: name, enabled: true}, nil
		case "off":
			return command{kind: name, enabled: false}, nil
		}
		return command{}, fmt.Errorf("usage: /%s on|off", name)
	case cmdCall:
		if rest == "" {
			return command{}, errors.New("usage: /call <text>")
		}
		return command{kind: cmdCall, text: rest}, nil
	}
	return command{}, fmt.Errorf("unknown command: /%s", name)
}

func scanLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func subprotocolFor(codec string) (string, error) {
	switch codec {
	case "":
		return "", nil
	case "json":
		return protocol.SubprotocolJSON, nil
	case "msgpack":
		return protocol.SubprotocolMsgpack, nil
	}
	return "", fmt.Errorf("unknown codec %q (want json or msgpack)", codec)
}

// parseRoomInput accepts a bare room id or a link ending in /rooms/<id>.
func parseRoomInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("room ID cannot be empty")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	parts := strings.Split(strings.TrimSuffix(parsedURL.Path, "/"), "/")
	for i, part := range parts {
		if part == "rooms" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("could not extract room ID from URL: %s", input)
}

func init() {
	joinCmd.Flags().StringVarP(&flagJoinPasskey, "passkey", "p", "", "Room passkey")
	joinCmd.Flags().StringVarP(&flagJoinName, "name", "n", "", "Display name")
	joinCmd.Flags().StringVarP(&flagJoinRole, "role", "r", string(interview.RoleCandidate), "interviewer or candidate")
	joinCmd.Flags().BoolVar(&flagJoinCall, "call", false, "Open a WebRTC data channel to the other participant")
	joinCmd.Flags().StringVar(&flagJoinCodec, "codec", "", "Frame codec: json or msgpack (default: let the server pick)")
	joinCmd.Flags().StringSliceVarP(&flagJoinSTUN, "stun", "s", []string{call.DefaultSTUN}, "STUN server URLs")
	joinCmd.Flags().StringSliceVarP(&flagJoinTURN, "turn", "t", nil, "TURN server URLs")
	joinCmd.Flags().String("turn-user", "", "TURN username (env INTERVIEW_TURN_USER)")
	joinCmd.Flags().String("turn-pass", "", "TURN password (env INTERVIEW_TURN_PASS)")
	joinCmd.Flags().BoolVar(&flagJoinRelay, "relay", false, "Force relay mode (needs --turn)")
	v.BindPFlag(keyTURNUser, joinCmd.Flags().Lookup("turn-user"))
	v.BindPFlag(keyTURNPass, joinCmd.Flags().Lookup("turn-pass"))
	joinCmd.MarkFlagRequired("passkey")
	joinCmd.MarkFlagRequired("name")
}
