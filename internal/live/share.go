package live

import (
	"sync"

	"github.com/google/uuid"
)

// ShareRegistry tracks the single screen-share owner per slide deck. State is
// process-local and lost on restart; clients re-establish it by restarting
// their share.
type ShareRegistry struct {
	mu     sync.Mutex
	owners map[uuid.UUID]uuid.UUID // deck -> owning user
}

func NewShareRegistry() *ShareRegistry {
	return &ShareRegistry{owners: make(map[uuid.UUID]uuid.UUID)}
}

// Start claims the deck for the owner. A repeated start by the current owner
// is idempotent; a start while someone else holds the deck is rejected.
func (s *ShareRegistry) Start(deckID, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.owners[deckID]; ok && current != ownerID {
		return &ForbiddenError{Message: "screen share already active for this deck"}
	}
	s.owners[deckID] = ownerID
	return nil
}

// Stop releases the deck. Only the current owner may stop the share.
func (s *ShareRegistry) Stop(deckID, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.owners[deckID]
	if !ok {
		return &InvalidTransitionError{Message: "no active screen share for this deck"}
	}
	if current != ownerID {
		return &ForbiddenError{Message: "screen share is owned by another user"}
	}
	delete(s.owners, deckID)
	return nil
}

// Owner returns the current owner, if any.
func (s *ShareRegistry) Owner(deckID uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[deckID]
	return owner, ok
}

// Active reports whether the deck has a live share.
func (s *ShareRegistry) Active(deckID uuid.UUID) bool {
	_, ok := s.Owner(deckID)
	return ok
}

// StopAllOwnedBy releases every deck the user holds and returns their ids.
// Called when the owner's connection drops.
func (s *ShareRegistry) StopAllOwnedBy(ownerID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stopped []uuid.UUID
	for deckID, owner := range s.owners {
		if owner == ownerID {
			stopped = append(stopped, deckID)
		}
	}
	for _, deckID := range stopped {
		delete(s.owners, deckID)
	}
	return stopped
}
