package observability

const (
	MUsecaseRequests     MetricKey = "usecase_requests_total"
	MUsecaseDuration     MetricKey = "usecase_duration_seconds"
	MHTTPRequests        MetricKey = "http_requests_total"
	MHTTPRequestDuration MetricKey = "http_request_duration_seconds"
	MForecastFits        MetricKey = "forecast_model_fits_total"
	MForecastFitDuration MetricKey = "forecast_model_fit_duration_seconds"
)
