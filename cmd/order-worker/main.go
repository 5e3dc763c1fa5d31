package main

import (
	"encoding/json"
	"flag"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Captain-Catto/online-store-sub001/internal/config"
	"github.com/Captain-Catto/online-store-sub001/internal/infra/mq"
	"github.com/Captain-Catto/online-store-sub001/internal/service"
)

// order-worker consumes order lifecycle events and handles the slow side
// effects (customer notifications) off the request path.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	mqConn := mq.Init(&cfg.RabbitMQ)

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(service.OrderEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// manual acks so a crashed handler redelivers
	msgs, err := ch.Consume(service.OrderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Println("order worker started, waiting for events...")

	for d := range msgs {
		handleEvent(d)
	}
}

func handleEvent(d amqp.Delivery) {
	var ev service.OrderEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Printf("invalid event payload: %v", err)
		// malformed, drop without requeue
		_ = d.Nack(false, false)
		service.GetMonitor().RecordWorkerFailed()
		return
	}

	switch ev.Event {
	case "order.created":
		// notification hook; the order itself is already committed
		log.Printf("order %d created for user %d, total %d", ev.OrderID, ev.UserID, ev.Total)
	case "order.cancelled":
		log.Printf("order %d cancelled for user %d", ev.OrderID, ev.UserID)
	case "order.refunded":
		log.Printf("order %d refunded for user %d", ev.OrderID, ev.UserID)
	default:
		log.Printf("unknown order event %q, dropping", ev.Event)
		_ = d.Nack(false, false)
		service.GetMonitor().RecordWorkerFailed()
		return
	}

	if err := d.Ack(false); err != nil {
		log.Printf("failed to ack event: %v", err)
		return
	}
	service.GetMonitor().RecordWorkerProcessed()
}
