package realtime

// Registry maps room ids to live room state. A room exists here only
// while it has at least one participant. Not safe for concurrent use;
// the hub goroutine is its only owner.
type Registry struct {
	rooms        map[string]*Room
	historyLimit int
}

func NewRegistry(historyLimit int) *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		historyLimit: historyLimit,
	}
}

func (r *Registry) GetOrCreate(roomID string) *Room {
	room, ok := r.rooms[roomID]
	if !ok {
		room = newRoom(roomID, r.historyLimit)
		r.rooms[roomID] = room
		roomsActive.Inc()
	}
	return room
}

func (r *Registry) Get(roomID string) (*Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// Release drops the room with all of its presence, chat and strokes.
func (r *Registry) Release(roomID string) {
	if _, ok := r.rooms[roomID]; ok {
		delete(r.rooms, roomID)
		roomsActive.Dec()
	}
}

func (r *Registry) Len() int {
	return len(r.rooms)
}
