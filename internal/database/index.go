package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

// UserIndex wraps an in-memory HNSW graph for fast nearest-neighbor search
// over user face embeddings. It is rebuilt from the database on startup and
// kept in sync as users are created and deleted.
type UserIndex struct {
	graph    *hnsw.Graph[int64]
	idToUser map[int64]*User
	mu       sync.RWMutex
}

// NewUserIndex creates a new empty index.
func NewUserIndex() *UserIndex {
	return &UserIndex{
		idToUser: make(map[int64]*User),
	}
}

func newGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// Build replaces the index contents with the given users.
func (h *UserIndex) Build(users []User) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(users) == 0 {
		h.graph = nil
		h.idToUser = make(map[int64]*User)
		return nil
	}

	g := newGraph()
	h.idToUser = make(map[int64]*User, len(users))

	for i := range users {
		user := &users[i]
		if len(user.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(user.ID, user.Embedding))
		h.idToUser[user.ID] = user
	}

	h.graph = g
	return nil
}

// Search finds the k nearest neighbors to the query embedding.
// Returns user IDs and their cosine distances, closest first.
func (h *UserIndex) Search(query []float32, k int) ([]int64, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	neighbors := h.graph.Search(query, k)

	ids := make([]int64, 0, len(neighbors))
	distances := make([]float64, 0, len(neighbors))

	for _, n := range neighbors {
		// Deleted users stay in the graph but drop out of the map.
		if _, ok := h.idToUser[n.Key]; !ok {
			continue
		}
		ids = append(ids, n.Key)
		distances = append(distances, CosineDistance(query, n.Value))
	}

	return ids, distances, nil
}

// Nearest returns the single closest user and its distance, or nil when the
// index is empty.
func (h *UserIndex) Nearest(query []float32) (*User, float64) {
	// Request extra candidates because deleted users are filtered after search.
	ids, distances, err := h.Search(query, HNSWSearchMultiplier)
	if err != nil || len(ids) == 0 {
		return nil, 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idToUser[ids[0]], distances[0]
}

// GetUser returns the indexed user for a given ID.
func (h *UserIndex) GetUser(id int64) *User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idToUser[id]
}

// Add adds a single user to the index.
func (h *UserIndex) Add(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(user.Embedding) == 0 {
		return
	}

	if h.graph == nil {
		h.graph = newGraph()
	}

	h.graph.Add(hnsw.MakeNode(user.ID, user.Embedding))
	h.idToUser[user.ID] = user
}

// Delete removes a user from the index.
func (h *UserIndex) Delete(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.idToUser, id)
	// HNSW doesn't support true deletion; removing from idToUser
	// effectively removes it from search results since we filter by lookup.
}

// Count returns the number of indexed users.
func (h *UserIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToUser)
}
