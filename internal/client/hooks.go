package client

import (
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"lmsadmin/internal/ctxdata"
	"lmsadmin/internal/logging"
)

const traceHeader = "X-Trace-Id"

func registerHooks(rc *resty.Client, logger *logging.Logger) {
	rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx := req.Context()
		if traceID, ok := ctxdata.GetTraceID(ctx); ok {
			req.SetHeader(traceHeader, traceID)
		}
		logger.Debug(ctx, "backend request",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
		)
		return nil
	})

	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		ctx := resp.Request.Context()
		fields := []zap.Field{
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()),
		}
		if resp.IsError() {
			logger.Warn(ctx, "backend request failed", fields...)
		} else {
			logger.Info(ctx, "backend request handled", fields...)
		}
		return nil
	})

	rc.OnError(func(req *resty.Request, err error) {
		logger.Error(req.Context(), "backend request error",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err),
		)
	})
}
