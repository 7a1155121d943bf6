// Package api is the HTTP surface over the app: execute and query any
// contract by name or address.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/gin-gonic/gin"

	"github.com/satlayer/satlayer-restaking/app"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/logger"
)

type Executor interface {
	Execute(ctx context.Context, block types.BlockInfo, sender string, msgs ...app.Msg) (*app.TxResult, error)
	Query(block types.BlockInfo, contract string, raw json.RawMessage) (any, error)
	Contracts() ([]app.ContractInfo, error)
	LastBlock() (types.BlockInfo, error)
}

// ExecutePayload runs msg, then any extra msgs, as one transaction. Zero
// height and time are filled by the app.
type ExecutePayload struct {
	Sender string          `json:"sender" binding:"required"`
	Height int64           `json:"height"`
	Time   *time.Time      `json:"time"`
	Msg    json.RawMessage `json:"msg" binding:"required"`
	Extra  []app.Msg       `json:"extra,omitempty"`
}

type QueryPayload struct {
	Height int64           `json:"height"`
	Time   *time.Time      `json:"time"`
	Msg    json.RawMessage `json:"msg" binding:"required"`
}

func block(height int64, t *time.Time) types.BlockInfo {
	b := types.BlockInfo{Height: height}
	if t != nil {
		b.Time = t.UTC()
	}
	return b
}

func fail(c *gin.Context, err error) {
	c.JSON(StatusOf(err), Err(err))
}

// SetupRoutes registers the handlers on router.
func SetupRoutes(router gin.IRouter, exec Executor, log logger.Logger) {
	router.GET("/healthz", func(c *gin.Context) {
		last, err := exec.LastBlock()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, OK(last))
	})

	router.GET("/contracts", func(c *gin.Context) {
		contracts, err := exec.Contracts()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, OK(contracts))
	})

	router.POST("/contracts/:contract/execute", func(c *gin.Context) {
		var payload ExecutePayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			fail(c, errorsmod.Wrapf(types.ErrInvalidInput, "payload: %v", err))
			return
		}
		msgs := append([]app.Msg{{Contract: c.Param("contract"), Msg: payload.Msg}}, payload.Extra...)
		res, err := exec.Execute(c.Request.Context(), block(payload.Height, payload.Time), payload.Sender, msgs...)
		if err != nil {
			log.Debug("execute rejected",
				logger.WithField("contract", c.Param("contract")),
				logger.WithField("err", err.Error()))
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, OK(res))
	})

	router.POST("/contracts/:contract/query", func(c *gin.Context) {
		var payload QueryPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			fail(c, errorsmod.Wrapf(types.ErrInvalidInput, "payload: %v", err))
			return
		}
		res, err := exec.Query(block(payload.Height, payload.Time), c.Param("contract"), payload.Msg)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, OK(res))
	})
}

type Server struct {
	address string
	exec    Executor
	logger  logger.Logger
}

func NewServer(address string, exec Executor, logger logger.Logger) *Server {
	return &Server{address: address, exec: exec, logger: logger}
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, s.exec, s.logger)
	return router
}

// Start serves the API until ctx is done. The returned channel is closed
// after shutdown.
func (s *Server) Start(ctx context.Context) <-chan error {
	s.logger.Info("starting api server", logger.WithField("address", s.address))
	errChan := make(chan error, 1)
	httpServer := http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		defer close(errChan)
		if err := httpServer.Shutdown(context.Background()); err != nil {
			errChan <- err
		}
		s.logger.Info("api server shut down")
	}()

	go func() {
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			errChan <- errorsmod.Wrap(err, "api server failed")
		}
	}()
	return errChan
}
