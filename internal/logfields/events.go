package logfields

import "go.uber.org/zap"

func EventProvider(val string) zap.Field {
	return zap.String("event_provider", val)
}

func Event(val string) zap.Field {
	return zap.String("event", val)
}

func DeliveryID(val string) zap.Field {
	return zap.String("github.delivery_id", val)
}

func WebhookType(val string) zap.Field {
	return zap.String("github.webhook_type", val)
}

func Operation(val string) zap.Field {
	return zap.String("operation", val)
}
