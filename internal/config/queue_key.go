package config

type QueueKeyStruct struct {
	EnrollmentCommitted string
}

// QueueKey names the RabbitMQ queues the service declares.
var QueueKey = &QueueKeyStruct{
	EnrollmentCommitted: "enrollment.committed",
}
