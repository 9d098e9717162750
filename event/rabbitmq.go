package event

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"chat-service/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ChannelData struct {
	Action string
	Data   []byte
}

type SubscribeListener struct {
	Queue   string
	Channel chan ChannelData
}

type LogData struct {
	Time   int64  `json:"time"`
	Queue  string `json:"queue"`
	Action string `json:"action"`
	Data   string `json:"data"`
}

const ActionHeader string = "x-action"
const InLogFile string = "log/in.log"
const OutLogFile string = "log/out.log"

// EventsQueue carries the domain events of the chat core for external
// consumers (audit, backoffice).
const EventsQueue string = "events"

var (
	RabbitMQConnection *amqp.Connection
	RabbitMQChannel    *amqp.Channel
	RabbitMQQueue      = make(map[string]amqp.Queue)

	inLog  *os.File
	outLog *os.File
)

func RabbitMQReady() bool {
	return RabbitMQChannel != nil
}

func RabbitMQConnect(queues []string) error {
	conn, err := amqp.Dial(fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		config.Config("RABBITMQ_USER"),
		config.Config("RABBITMQ_PASSWORD"),
		config.Config("RABBITMQ_HOST"),
		config.Config("RABBITMQ_PORT"),
	))
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	RabbitMQConnection = conn
	log.Printf("connection opened to RabbitMQ server")

	RabbitMQChannel, err = RabbitMQConnection.Channel()
	if err != nil {
		return fmt.Errorf("open a RabbitMQ channel: %w", err)
	}

	for _, name := range queues {
		queue, err := RabbitMQChannel.QueueDeclare(
			name,  // name
			false, // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare RabbitMQ queue %s: %w", name, err)
		}
		RabbitMQQueue[name] = queue
		log.Printf("declared RabbitMQ queue: %s", name)
	}

	if config.Config("EVENT_MODE") != "DISABLE" {
		if err := os.MkdirAll("log", 0700); err != nil {
			return err
		}
		inLog, err = os.OpenFile(InLogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return err
		}
		outLog, err = os.OpenFile(OutLogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return err
		}
	}
	return nil
}

func RabbitMQClose() {
	if inLog != nil {
		inLog.Close()
	}
	if outLog != nil {
		outLog.Close()
	}
	if RabbitMQChannel != nil {
		RabbitMQChannel.Close()
	}
	if RabbitMQConnection != nil {
		RabbitMQConnection.Close()
	}
}

// RabbitMQSubscribe consumes each queue and forwards deliveries to its
// listener channel.
func RabbitMQSubscribe(listeners []SubscribeListener) error {
	if !RabbitMQReady() {
		return fmt.Errorf("subscribe: RabbitMQ is not connected")
	}
	for _, listener := range listeners {
		msgs, err := RabbitMQChannel.Consume(
			listener.Queue, // queue
			"",             // consumer
			false,          // auto-ack
			false,          // exclusive
			false,          // no-local
			false,          // no-wait
			nil,            // args
		)
		if err != nil {
			return fmt.Errorf("register consumer for %s: %w", listener.Queue, err)
		}
		log.Printf("subscribed to RabbitMQ [%s] queue", listener.Queue)

		queue := listener.Queue
		ch := listener.Channel
		go func() {
			for msg := range msgs {
				action, _ := msg.Headers[ActionHeader].(string)

				writeLog(inLog, LogData{
					Time:   time.Now().UnixMicro(),
					Queue:  queue,
					Action: action,
					Data:   string(msg.Body),
				})

				msg.Ack(false)

				ch <- ChannelData{Action: action, Data: msg.Body}
			}
		}()
	}
	return nil
}

// Emit publishes one event. Failures are logged, never raised: domain
// writes already committed by the time an event is mirrored here.
func Emit(queue string, action string, data []byte, logged bool) {
	if !RabbitMQReady() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := RabbitMQChannel.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Headers: amqp.Table{
				ActionHeader: action,
			},
			Body: data,
		},
	)
	if err != nil {
		log.Printf("failed to publish %s to %s: %v", action, queue, err)
		return
	}

	if logged {
		writeLog(outLog, LogData{
			Time:   time.Now().UnixMicro(),
			Queue:  queue,
			Action: action,
			Data:   string(data),
		})
	}
}

func writeLog(file *os.File, data LogData) {
	if file == nil {
		return
	}
	line, _ := json.Marshal(data)
	if _, err := file.WriteString(string(line) + "\n"); err != nil {
		log.Printf("failed to append event log: %v", err)
	}
}

// Replay re-emits previously logged outbound events, used to rebuild a
// consumer's state after the broker lost its queues.
func Replay() error {
	replayLog, err := os.Open(OutLogFile)
	if err != nil {
		return err
	}
	defer replayLog.Close()

	scanner := bufio.NewScanner(replayLog)
	for scanner.Scan() {
		data := LogData{}
		if err := json.Unmarshal(scanner.Bytes(), &data); err != nil {
			continue
		}
		Emit(data.Queue, data.Action, []byte(data.Data), false)
	}
	return scanner.Err()
}
