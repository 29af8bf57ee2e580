package project

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/types"
)

const (
	EventTypeProjectCreated    = "project.created"
	EventTypeManagerSet        = "project.manager_set"
	EventTypeIDOSet            = "project.ido_set"
	EventTypeApprovalRequested = "project.approval_requested"
	EventTypeApproved          = "project.approved"
	EventTypeProjectEnded      = "project.ended"
)

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func newProjectCreatedEvent(p *Project) *types.Event {
	return &types.Event{Type: EventTypeProjectCreated, Attributes: map[string]string{
		"projectId":      u64(p.ID),
		"owner":          p.Owner.Hex(),
		"collection":     p.Collection.Hex(),
		"single":         strconv.FormatBool(p.IsSingle),
		"raise":          strconv.FormatBool(p.IsRaise),
		"createdByAdmin": strconv.FormatBool(p.CreatedByAdmin),
	}}
}

func newManagerSetEvent(id uint64, manager common.Address) *types.Event {
	return &types.Event{Type: EventTypeManagerSet, Attributes: map[string]string{
		"projectId": u64(id),
		"manager":   manager.Hex(),
	}}
}

func newIDOSetEvent(id uint64, w IDO) *types.Event {
	return &types.Event{Type: EventTypeIDOSet, Attributes: map[string]string{
		"projectId":         u64(id),
		"joinStart":         u64(w.JoinStart),
		"joinEnd":           u64(w.JoinEnd),
		"saleStart":         u64(w.SaleStart),
		"saleEnd":           u64(w.SaleEnd),
		"distributionStart": u64(w.DistributionStart),
	}}
}

func newApprovalEvent(eventType string, id uint64, percent uint64, actor common.Address) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"projectId": u64(id),
		"percent":   u64(percent),
		"actor":     actor.Hex(),
	}}
}

func newProjectEndedEvent(id uint64, ts int64) *types.Event {
	return &types.Event{Type: EventTypeProjectEnded, Attributes: map[string]string{
		"projectId": u64(id),
		"timestamp": strconv.FormatInt(ts, 10),
	}}
}
