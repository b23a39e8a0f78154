package main

import (
	"encoding/json"
	"errors"
	"log"
)

// Message defines the structure of data exchanged via WebSocket.
type Message struct {
	Type    string          `json:"type"`
	BoardID string          `json:"board_id"`
	Payload json.RawMessage `json:"payload"`
	User    string          `json:"user,omitempty"`
}

// BoardSnapshot is the state broadcast to every client of a board after a
// successful command.
type BoardSnapshot struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Structures []*Structure `json:"structures"`
}

// Hub maintains the set of active clients per board and applies their
// commands strictly in arrival order against the latest adopted state.
type Hub struct {
	// Registered clients per board.
	rooms map[string]map[*Client]bool

	// Inbound commands from the clients.
	inbound chan *inboundMessage

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client
}

type inboundMessage struct {
	client *Client
	msg    *Message
}

func newHub() *Hub {
	return &Hub{
		inbound:    make(chan *inboundMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func snapshotOf(board *Board) *BoardSnapshot {
	st := board.State()
	structures := make([]*Structure, 0, len(st.Structures))
	for _, s := range st.Structures {
		structures = append(structures, s)
	}
	return &BoardSnapshot{ID: board.ID, Name: board.Name, Structures: structures}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			if h.rooms[client.boardID] == nil {
				h.rooms[client.boardID] = make(map[*Client]bool)
			}
			h.rooms[client.boardID][client] = true
			log.Printf("Client registered to board %s: %s", client.boardID, client.userID)

			if board := globalBoardManager.GetBoard(client.boardID); board != nil {
				payload, _ := json.Marshal(snapshotOf(board))
				client.send <- msgToBytes(&Message{
					Type:    "INIT",
					BoardID: client.boardID,
					Payload: payload,
					User:    "system",
				})
			}

		case client := <-h.unregister:
			if clients, ok := h.rooms[client.boardID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.boardID)
					}
					log.Printf("Client unregistered from board %s", client.boardID)
				}
			}

		case in := <-h.inbound:
			h.dispatch(in.client, in.msg)
		}
	}
}

// dispatch runs one command to completion before the next one is read, so
// interleaved pointer events from several clients are applied in event
// order against the latest adopted state.
func (h *Hub) dispatch(client *Client, message *Message) {
	board := globalBoardManager.GetBoard(message.BoardID)
	if board == nil {
		h.sendTo(client, &Message{Type: "COMMAND_REJECTED", BoardID: message.BoardID,
			Payload: errPayload("board not found"), User: "system"})
		return
	}

	switch message.Type {
	case "MOVE_STRUCTURE":
		var cmd struct {
			ID        string   `json:"id"`
			Target    Position `json:"target"`
			Overwrite bool     `json:"overwrite"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling MOVE_STRUCTURE payload: %v", err)
			return
		}
		conflicts, err := board.Move(cmd.ID, cmd.Target, cmd.Overwrite)
		if err != nil {
			h.reject(client, message, err)
			return
		}
		if len(conflicts) > 0 {
			payload, _ := json.Marshal(conflicts)
			h.sendTo(client, &Message{Type: "MOVE_CONFLICTS", BoardID: board.ID, Payload: payload, User: "system"})
			return
		}
		h.broadcastSnapshot(board, message.User)

	case "RESIZE_STRUCTURE":
		var cmd struct {
			ID     string     `json:"id"`
			Origin Position   `json:"origin"`
			Dims   Dimensions `json:"dims"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling RESIZE_STRUCTURE payload: %v", err)
			return
		}
		h.apply(client, board, message, func(st *GridState) (*GridState, error) {
			return st.ResizeStructure(cmd.ID, cmd.Origin, cmd.Dims)
		})

	case "ADD_ROW", "ADD_COLUMN":
		var cmd struct {
			ID          string `json:"id"`
			InsertAfter int    `json:"insert_after"`
			Edge        bool   `json:"edge"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling %s payload: %v", message.Type, err)
			return
		}
		h.apply(client, board, message, func(st *GridState) (*GridState, error) {
			if message.Type == "ADD_ROW" {
				return st.AddRow(cmd.ID, cmd.InsertAfter, cmd.Edge)
			}
			return st.AddColumn(cmd.ID, cmd.InsertAfter, cmd.Edge)
		})

	case "DELETE_STRUCTURE":
		var cmd struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling DELETE_STRUCTURE payload: %v", err)
			return
		}
		h.apply(client, board, message, func(st *GridState) (*GridState, error) {
			return st.DeleteStructure(cmd.ID)
		})

	case "SET_CELL":
		var cmd struct {
			Position Position `json:"position"`
			Value    string   `json:"value"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling SET_CELL payload: %v", err)
			return
		}
		h.apply(client, board, message, func(st *GridState) (*GridState, error) {
			return st.SetCellValue(cmd.Position, cmd.Value)
		})

	case "RENAME_STRUCTURE":
		var cmd struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling RENAME_STRUCTURE payload: %v", err)
			return
		}
		h.apply(client, board, message, func(st *GridState) (*GridState, error) {
			return st.RenameStructure(cmd.ID, cmd.Name)
		})

	case "SAVE_TEMPLATE":
		var cmd struct {
			Name   string     `json:"name"`
			Origin Position   `json:"origin"`
			Dims   Dimensions `json:"dims"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling SAVE_TEMPLATE payload: %v", err)
			return
		}
		def := CaptureTemplate(board.State(), cmd.Origin, cmd.Dims)
		version := globalTemplateRegistry.Register(cmd.Name, def)
		payload, _ := json.Marshal(map[string]any{"name": cmd.Name, "version": version})
		h.sendTo(client, &Message{Type: "TEMPLATE_SAVED", BoardID: board.ID, Payload: payload, User: "system"})

	case "INSTANTIATE_TEMPLATE":
		var cmd struct {
			Name    string     `json:"name"`
			Version int        `json:"version"`
			Target  Position   `json:"target"`
			Dims    Dimensions `json:"dims"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling INSTANTIATE_TEMPLATE payload: %v", err)
			return
		}
		def, err := globalTemplateRegistry.Get(cmd.Name, cmd.Version)
		if err != nil {
			h.reject(client, message, err)
			return
		}
		h.apply(client, board, message, func(st *GridState) (*GridState, error) {
			return st.InstantiateTemplate(def, cmd.Target, cmd.Dims)
		})

	case "CLICK":
		var cmd struct {
			Position Position `json:"position"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling CLICK payload: %v", err)
			return
		}
		// Selection is per client; the result goes back to the sender only.
		result := client.selection.Click(board.State(), cmd.Position)
		payload, _ := json.Marshal(result)
		h.sendTo(client, &Message{Type: "SELECTION_UPDATED", BoardID: board.ID, Payload: payload, User: "system"})

	case "DRAG_BEGIN":
		var cmd struct {
			ID      string   `json:"id"`
			Pointer Position `json:"pointer"`
			Resize  bool     `json:"resize"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling DRAG_BEGIN payload: %v", err)
			return
		}
		var (
			session *DragSession
			err     error
		)
		if cmd.Resize {
			session, err = BeginResizeDrag(board.State(), cmd.ID)
		} else {
			session, err = BeginMoveDrag(board.State(), cmd.ID, cmd.Pointer)
		}
		if err != nil {
			h.reject(client, message, err)
			return
		}
		client.drag = session

	case "DRAG_UPDATE":
		var cmd struct {
			Pointer Position `json:"pointer"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling DRAG_UPDATE payload: %v", err)
			return
		}
		if client.drag == nil {
			return
		}
		valid := client.drag.Update(board.State(), cmd.Pointer)
		payload, _ := json.Marshal(map[string]bool{"valid": valid})
		h.sendTo(client, &Message{Type: "DRAG_CANDIDATE", BoardID: board.ID, Payload: payload, User: "system"})

	case "DRAG_END":
		var cmd struct {
			Overwrite bool `json:"overwrite"`
			Cancel    bool `json:"cancel"`
		}
		if err := json.Unmarshal(message.Payload, &cmd); err != nil {
			log.Printf("Error unmarshalling DRAG_END payload: %v", err)
			return
		}
		session := client.drag
		client.drag = nil
		if session == nil {
			return
		}
		if cmd.Cancel {
			session.Cancel()
			return
		}
		var conflicts []Conflict
		err := board.Mutate(func(st *GridState) (*GridState, error) {
			ns, c, err := session.Commit(st, cmd.Overwrite)
			conflicts = c
			return ns, err
		})
		if err != nil {
			h.reject(client, message, err)
			return
		}
		if len(conflicts) > 0 {
			payload, _ := json.Marshal(conflicts)
			h.sendTo(client, &Message{Type: "MOVE_CONFLICTS", BoardID: board.ID, Payload: payload, User: "system"})
			return
		}
		h.broadcastSnapshot(board, message.User)

	default:
		log.Printf("Unknown command type %q from %s", message.Type, message.User)
	}
}

// apply runs a state-producing command on the board and either broadcasts
// the new snapshot or reports the rejection back to the sender.
func (h *Hub) apply(client *Client, board *Board, message *Message, fn func(*GridState) (*GridState, error)) {
	if err := board.Mutate(fn); err != nil {
		h.reject(client, message, err)
		return
	}
	h.broadcastSnapshot(board, message.User)
}

func (h *Hub) reject(client *Client, message *Message, err error) {
	if !errors.Is(err, ErrInvalidTarget) && !errors.Is(err, ErrOutOfBounds) &&
		!errors.Is(err, ErrStructureNotFound) && !errors.Is(err, ErrNotResizable) &&
		!errors.Is(err, ErrTemplateNotFound) && !errors.Is(err, ErrInvalidDimensions) {
		log.Printf("Command %s failed: %v", message.Type, err)
	}
	h.sendTo(client, &Message{
		Type:    "COMMAND_REJECTED",
		BoardID: message.BoardID,
		Payload: errPayload(err.Error()),
		User:    "system",
	})
}

func (h *Hub) broadcastSnapshot(board *Board, user string) {
	payload, _ := json.Marshal(snapshotOf(board))
	msg := &Message{Type: "BOARD_UPDATED", BoardID: board.ID, Payload: payload, User: user}
	if clients, ok := h.rooms[board.ID]; ok {
		for client := range clients {
			select {
			case client.send <- msgToBytes(msg):
			default:
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

// sendTo delivers a message to one client. A client already evicted from
// its room has a closed send channel; commands it queued before eviction
// can still arrive here, so membership is checked before writing.
func (h *Hub) sendTo(client *Client, msg *Message) {
	clients, ok := h.rooms[client.boardID]
	if !ok || !clients[client] {
		return
	}
	select {
	case client.send <- msgToBytes(msg):
	default:
		close(client.send)
		delete(clients, client)
	}
}

func errPayload(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}

func msgToBytes(msg *Message) []byte {
	b, _ := json.Marshal(msg)
	return b
}
