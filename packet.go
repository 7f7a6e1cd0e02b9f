package clicktest

import (
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// HandlePacket records an attack for the subject if pk is a client's attack on an entity. It returns true
// if the attack was recorded towards a running click test. Any other packet is ignored.
func (t *Tester) HandlePacket(subject string, pk packet.Packet) bool {
	tr, ok := pk.(*packet.InventoryTransaction)
	if !ok {
		return false
	}
	dat, ok := tr.TransactionData.(*protocol.UseItemOnEntityTransactionData)
	if !ok || dat.ActionType != protocol.UseItemOnEntityActionAttack {
		return false
	}
	return t.RecordAttack(subject)
}
