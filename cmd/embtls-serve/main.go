package main

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/embtls/embtls"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := &cli.App{
		Name:  "embtls-serve",
		Usage: "A TLS echo server built on the embtls session layer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on",
				Value: "127.0.0.1:4433",
			},
			&cli.StringFlag{
				Name:     "cert",
				Usage:    "Path to the PEM certificate chain",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "key",
				Usage:    "Path to the PEM private key",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "sessions",
				Usage: "Maximum concurrent TLS sessions",
				Value: 1,
			},
			&cli.GenericFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set the log level",
				Value:   fromLogLevel(slog.LevelInfo),
			},
		},
		Before: func(c *cli.Context) error {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: (*slog.Level)(c.Generic("log-level").(*logLevelFlag)),
			}))
			return nil
		},
		Action: func(c *cli.Context) error {
			certPEM, err := os.ReadFile(c.String("cert"))
			if err != nil {
				return err
			}
			keyPEM, err := os.ReadFile(c.String("key"))
			if err != nil {
				return err
			}

			state := embtls.NewState(embtls.WithSessionSlots(c.Int("sessions")))
			if err := state.Init(); err != nil {
				return err
			}

			ctx, err := state.NewContext(embtls.ProtocolDefault, embtls.WithLogger(logger))
			if err != nil {
				return err
			}
			defer ctx.Close()

			if err := ctx.LoadCertificateChain(certPEM, keyPEM); err != nil {
				return err
			}

			l, err := net.Listen("tcp", c.String("listen"))
			if err != nil {
				return err
			}
			defer l.Close()

			logger.Info("Listening for TLS connections", "addr", l.Addr().String())

			term := make(chan os.Signal, 1)
			signal.Notify(term, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-term
				l.Close()
			}()

			for {
				conn, err := l.Accept()
				if err != nil {
					if errors.Is(err, net.ErrClosed) {
						return nil
					}
					return err
				}
				go serve(logger, ctx, conn)
			}
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("Failed to run application", "error", err)
		os.Exit(1)
	}
}

// serve echoes decrypted application data back to the peer over one
// session, then closes the session before the transport.
func serve(logger *slog.Logger, ctx *embtls.Context, conn net.Conn) {
	defer conn.Close()

	sess, err := embtls.NewSession(ctx, conn, embtls.ModeServer)
	if err != nil {
		if errors.Is(err, embtls.ErrResourceBusy) {
			logger.Warn("Rejecting connection, no free session slot", "remote", conn.RemoteAddr())
			return
		}
		logger.Error("Handshake failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	buf := make([]byte, 32<<10)
	for {
		n, err := sess.Read(buf)
		if n > 0 {
			if _, werr := sess.Write(buf[:n]); werr != nil {
				logger.Error("Write failed", "remote", conn.RemoteAddr(), "error", werr)
				break
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Error("Read failed", "remote", conn.RemoteAddr(), "error", err)
			}
			break
		}
	}

	if err := sess.Close(); err != nil {
		logger.Error("Session close failed", "remote", conn.RemoteAddr(), "error", err)
	}
}

type logLevelFlag slog.Level

func fromLogLevel(l slog.Level) *logLevelFlag {
	f := logLevelFlag(l)
	return &f
}

func (f *logLevelFlag) Set(value string) error {
	return (*slog.Level)(f).UnmarshalText([]byte(value))
}

func (f *logLevelFlag) String() string {
	return (*slog.Level)(f).String()
}
