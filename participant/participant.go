// Package participant holds the registry view of training sites known to
// the manager. Sites announce themselves and heartbeat over MQTT; the
// manager builds the per-session pool from the ones currently alive.
package participant

import "time"

const aliveTimeout = 10 * time.Second

type Participant struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	NodeID       string      `json:"node_id"`
	Endpoint     string      `json:"endpoint,omitempty"`
	Sessions     uint64      `json:"sessions"`
	Alive        bool        `json:"alive"`
	AliveHistory []time.Time `json:"alive_history"`
}

// SetAlive recomputes liveness from the most recent heartbeat.
func (p *Participant) SetAlive() {
	if len(p.AliveHistory) > 0 {
		lastAlive := p.AliveHistory[len(p.AliveHistory)-1]
		if time.Since(lastAlive) <= aliveTimeout {
			p.Alive = true

			return
		}
	}
	p.Alive = false
}

type ParticipantPage struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Participants []Participant `json:"participants"`
}
