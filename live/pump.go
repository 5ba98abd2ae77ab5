package live

import (
	"context"

	"github.com/office/restobook/repository"
	"github.com/office/restobook/services"
	"github.com/office/restobook/utils"
)

// Pump subscribes to the repository's live feeds and rebroadcasts every
// snapshot to the hub. It owns the feed lifetimes: cancelling ctx tears
// all of them down.
type Pump struct {
	hub        *Hub
	repo       *repository.RestoRepository
	aggregator *services.Aggregator
}

func NewPump(hub *Hub, repo *repository.RestoRepository, aggregator *services.Aggregator) *Pump {
	return &Pump{hub: hub, repo: repo, aggregator: aggregator}
}

// Start opens all feeds and launches one forwarding goroutine per feed.
func (p *Pump) Start(ctx context.Context) error {
	running, err := p.aggregator.RunningOrderViews(ctx)
	if err != nil {
		return err
	}
	completed, err := p.aggregator.CompletedOrderViews(ctx)
	if err != nil {
		running.Cancel()
		return err
	}
	menu, err := p.repo.AllMenuItems(ctx)
	if err != nil {
		running.Cancel()
		completed.Cancel()
		return err
	}
	expenses, err := p.repo.AllExpenses(ctx)
	if err != nil {
		running.Cancel()
		completed.Cancel()
		menu.Cancel()
		return err
	}

	go forward(running, p.hub, EventRunningOrders)
	go forward(completed, p.hub, EventCompletedOrders)
	go forward(menu, p.hub, EventMenuUpdate)
	go forward(expenses, p.hub, EventExpenseUpdate)
	return nil
}

func forward[T any](feed *repository.Feed[T], hub *Hub, event string) {
	for snapshot := range feed.Updates() {
		hub.Broadcast(Message{Event: event, Data: snapshot})
	}
	if err := feed.Err(); err != nil {
		utils.ErrorLogger.Printf("%s feed closed: %v", event, err)
	}
}
