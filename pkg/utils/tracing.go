package utils

const defaultServiceName = "crpt-gateway"

// IsTracingEnabled is off unless OTEL_TRACES_ENABLED parses as true.
func IsTracingEnabled() bool {
	enabled, err := EnvBool("OTEL_TRACES_ENABLED", false)
	return err == nil && enabled
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", defaultServiceName)
}
