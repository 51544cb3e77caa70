package room

import (
	"time"

	"github.com/palemoky/reaction-royale/internal/protocol"
	"github.com/palemoky/reaction-royale/internal/server/storage"
)

// ToDoc 转换为存储文档
func (r *Room) ToDoc() *storage.RoomDoc {
	players := make(map[string]storage.PlayerDoc, len(r.Players))
	for uid, p := range r.Players {
		players[uid] = storage.PlayerDoc{
			UID:         p.UID,
			Name:        p.Name,
			AvatarSeed:  p.AvatarSeed,
			Score:       p.Score,
			Ready:       p.Ready,
			LastOutcome: copyOutcome(p.LastOutcome),
		}
	}
	return &storage.RoomDoc{
		Code:   r.Code,
		Name:   r.Name,
		HostID: r.HostID,
		Status: string(r.Status),
		Round: storage.RoundDoc{
			Phase:       string(r.Round.Phase),
			Index:       r.Round.Index,
			TotalRounds: r.Round.TotalRounds,
			ArmedAt:     r.Round.ArmedAt,
		},
		Players:   players,
		Order:     append([]string(nil), r.Order...),
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
}

// FromDoc 从存储文档重建房间
func FromDoc(doc *storage.RoomDoc) *Room {
	r := &Room{
		Code:    doc.Code,
		Name:    doc.Name,
		HostID:  doc.HostID,
		Status:  Status(doc.Status),
		Players: make(map[string]*Player, len(doc.Players)),
		Order:   append([]string(nil), doc.Order...),
		Round: Round{
			Phase:       Phase(doc.Round.Phase),
			Index:       doc.Round.Index,
			TotalRounds: doc.Round.TotalRounds,
			ArmedAt:     doc.Round.ArmedAt,
		},
		CreatedAt: time.UnixMilli(doc.CreatedAt),
	}
	for uid, p := range doc.Players {
		r.Players[uid] = &Player{
			UID:         p.UID,
			Name:        p.Name,
			AvatarSeed:  p.AvatarSeed,
			Score:       p.Score,
			Ready:       p.Ready,
			LastOutcome: copyOutcome(p.LastOutcome),
		}
	}
	return r
}

// SnapshotFromDoc 把存储文档转成推送给客户端的快照
func SnapshotFromDoc(doc *storage.RoomDoc) protocol.RoomSnapshot {
	players := make([]protocol.PlayerInfo, 0, len(doc.Players))
	for _, uid := range doc.Order {
		p, ok := doc.Players[uid]
		if !ok {
			continue
		}
		players = append(players, protocol.PlayerInfo{
			UID:         p.UID,
			Name:        p.Name,
			AvatarSeed:  p.AvatarSeed,
			Score:       p.Score,
			Ready:       p.Ready,
			IsHost:      p.UID == doc.HostID,
			LastOutcome: copyOutcome(p.LastOutcome),
		})
	}
	return protocol.RoomSnapshot{
		Code:        doc.Code,
		Name:        doc.Name,
		HostID:      doc.HostID,
		Status:      doc.Status,
		Phase:       doc.Round.Phase,
		RoundIndex:  doc.Round.Index,
		TotalRounds: doc.Round.TotalRounds,
		ArmedAt:     doc.Round.ArmedAt,
		Players:     players,
		CreatedAt:   doc.CreatedAt,
	}
}

// Snapshot 当前房间的客户端快照
func (r *Room) Snapshot() protocol.RoomSnapshot {
	return SnapshotFromDoc(r.ToDoc())
}

func copyOutcome(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
