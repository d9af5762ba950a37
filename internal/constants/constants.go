package constants

// Имена объектов RabbitMQ, общие для издателя и подписчиков.
const (
	ListingsExchange = "listings_exchange"
)
