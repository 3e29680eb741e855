package service

import (
	"context"
	"time"

	"rydin/internal/general/logger"
	"rydin/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer is the part of the RabbitMQ client the worker consumes through.
type Consumer interface {
	Consume(ctx context.Context, queue, consumerTag string, prefetch int, handler func(context.Context, amqp.Delivery) error) error
}

// bucketService keeps the popular routes stocked with system rides.
type bucketService struct {
	logger        *logger.Logger
	uow           ports.UnitOfWork
	rideRepo      ports.RideRepository
	rideEventRepo ports.RideEventRepository
	pub           ports.Publisher
	consumer      Consumer
	loc           *time.Location
	now           func() time.Time
}

// NewBucketService creates the bucket service. consumer may be nil when the
// process does not serve generation requests.
func NewBucketService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rideRepo ports.RideRepository,
	rideEventRepo ports.RideEventRepository,
	pub ports.Publisher,
	consumer Consumer,
	loc *time.Location,
) ports.BucketService {
	if loc == nil {
		loc = time.UTC
	}
	return &bucketService{
		logger:        logger,
		uow:           uow,
		rideRepo:      rideRepo,
		rideEventRepo: rideEventRepo,
		pub:           pub,
		consumer:      consumer,
		loc:           loc,
		now:           time.Now,
	}
}

// today is the local calendar date of the campus.
func (service *bucketService) today() string {
	return service.now().In(service.loc).Format("2006-01-02")
}
