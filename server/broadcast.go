package server

import (
	"sync"

	"adboard/models"

	log "github.com/sirupsen/logrus"
)

// Broadcaster fans refresh events out to connected dashboards. Admin
// mutations publish here so every open display re-fetches instead of
// waiting for its poll interval.
type Broadcaster struct {
	sync.RWMutex
	refreshClients map[string]chan models.RefreshEvent
}

// Constructor
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		refreshClients: make(map[string]chan models.RefreshEvent, 100),
	}
}

func (b *Broadcaster) BroadcastRefresh(event models.RefreshEvent) {
	b.RLock()
	defer b.RUnlock()

	for id, client := range b.refreshClients {
		select {
		case client <- event: // Non-blocking send
		default:
			log.Warnf("Client channel full, skipping refresh for client: %v", id)
		}
	}
}

// AddClient registers a dashboard connection with the broadcaster
func (b *Broadcaster) AddClient(key string, refreshClient chan models.RefreshEvent) {
	b.Lock()
	defer b.Unlock()
	b.refreshClients[key] = refreshClient
	log.WithFields(log.Fields{
		"key":   key,
		"count": len(b.refreshClients),
	}).Info("Adding client to broadcaster")
}

// RemoveClient drops a dashboard connection and closes its channel
func (b *Broadcaster) RemoveClient(key string) {
	b.Lock()
	defer b.Unlock()

	if client, ok := b.refreshClients[key]; ok {
		close(client)
		delete(b.refreshClients, key)
	}

	log.WithFields(log.Fields{
		"key":   key,
		"count": len(b.refreshClients),
	}).Info("Removed client from broadcaster")
}

func (b *Broadcaster) Shutdown() {
	log.Info("Shutting down broadcaster")
	b.Lock()
	defer b.Unlock()
	for key, client := range b.refreshClients {
		close(client)
		delete(b.refreshClients, key)
	}
}
