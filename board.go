package main

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Board is one grid document. The current GridState is immutable; commands
// build a new state and the board swaps its reference atomically under the
// lock, so readers never observe a partially updated index.
type Board struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`

	mu    sync.RWMutex
	state *GridState
}

// State returns the latest adopted state. The returned value is never
// mutated in place; it is safe to read without further locking.
func (b *Board) State() *GridState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Mutate applies a command against the latest adopted state and swaps in the
// result. A nil new state (rejected command) leaves the board unchanged.
func (b *Board) Mutate(fn func(*GridState) (*GridState, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns, err := fn(b.state)
	if err != nil {
		return err
	}
	if ns != nil {
		b.state = ns
	}
	return nil
}

// Move runs a move command. Returned conflicts mean the move was blocked
// pending an overwrite decision; the board is unchanged in that case.
func (b *Board) Move(id string, target Position, overwrite bool) ([]Conflict, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns, conflicts, err := b.state.MoveStructure(id, target, overwrite)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}
	b.state = ns
	return nil, nil
}

type BoardManager struct {
	boards map[string]*Board
	mu     sync.RWMutex
}

var globalBoardManager = &BoardManager{
	boards: make(map[string]*Board),
}

var boardCounter uint64

func generateBoardID() string {
	return "b" + strconv.FormatUint(atomic.AddUint64(&boardCounter, 1), 10)
}

func (bm *BoardManager) CreateBoard(name, owner string) *Board {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	board := &Board{
		ID:    generateBoardID(),
		Name:  name,
		Owner: owner,
		state: NewGridState(),
	}
	bm.boards[board.ID] = board
	return board
}

func (bm *BoardManager) GetBoard(id string) *Board {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.boards[id]
}

func (bm *BoardManager) ListBoards() []*Board {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	list := make([]*Board, 0, len(bm.boards))
	for _, b := range bm.boards {
		list = append(list, b)
	}
	return list
}

func (bm *BoardManager) RenameBoard(id, newName string) bool {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	b, ok := bm.boards[id]
	if !ok {
		return false
	}
	b.Name = newName
	return true
}

func (bm *BoardManager) DeleteBoard(id string) bool {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if _, ok := bm.boards[id]; !ok {
		return false
	}
	delete(bm.boards, id)
	return true
}
