package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	socketclient "github.com/shir/socketclient"
)

type config struct {
	Hostname    string
	Port        uint
	Protocol    string
	Path        string
	LogLevel    string
	AccessToken string
}

type printingDelegate struct {
	socketclient.NopDelegate
	logger *logrus.Logger
}

func (d *printingDelegate) Connected(s *socketclient.Session) {
	d.logger.WithField("clientId", s.ClientID()).Info("connected")
}

func (d *printingDelegate) Disconnected(s *socketclient.Session, m *socketclient.Message, err error) {
	d.logger.WithError(err).Info("disconnected")
}

func (d *printingDelegate) Failed(s *socketclient.Session, err error) {
	d.logger.WithError(err).Error("session error")
}

func (d *printingDelegate) SubscriptionSucceeded(s *socketclient.Session, channel socketclient.Channel) {
	d.logger.WithField("channel", channel).Info("subscribed")
}

func main() {
	var level logrus.Level
	var cfg config
	flags := flag.NewFlagSet("sockettail", flag.ExitOnError)
	flags.StringVar(&cfg.Protocol, "protocol", "wss", "the protocol to use (ws or wss)")
	flags.UintVar(&cfg.Port, "port", 443, "the port used to connect to the Bayeux server")
	flags.StringVar(&cfg.Hostname, "hostname", "", "the hostname to connect to")
	flags.StringVar(&cfg.Path, "path", "", "the path used to connect to bayeux")
	flags.StringVar(&cfg.LogLevel, "loglevel", "error", "the level to log at")
	flags.StringVar(&cfg.AccessToken, "token", "", "an access token forwarded in the handshake ext")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Printf("error parsing flags: %q\n", err)
		os.Exit(1)
	}
	channelNames := flags.Args()
	logger := logrus.New()

	switch cfg.LogLevel {
	case "debug":
		level = logrus.DebugLevel
	case "info":
		level = logrus.InfoLevel
	case "warn":
		level = logrus.WarnLevel
	case "error":
		level = logrus.ErrorLevel
	default:
		level = logrus.PanicLevel
	}
	logger.SetLevel(level)

	u := url.URL{Scheme: cfg.Protocol, Host: fmt.Sprintf("%s:%d", cfg.Hostname, cfg.Port), Path: cfg.Path}
	opts := []socketclient.Option{
		socketclient.WithFieldLogger(logger),
		socketclient.WithDelegate(&printingDelegate{logger: logger}),
	}
	if cfg.AccessToken != "" {
		opts = append(opts, socketclient.WithHandshakeExtension(socketclient.Ext{"authToken": cfg.AccessToken}))
	}

	session, err := socketclient.NewSession(u.String(), opts...)
	if err != nil {
		fmt.Printf("error initializing session: %q\n", err)
		os.Exit(1)
	}
	logger.Debug("got session")

	session.Connect(nil, func() {
		for _, name := range channelNames {
			session.Subscribe(socketclient.Channel(name), func(channel socketclient.Channel, data json.RawMessage) {
				logger.WithFields(logrus.Fields{
					"channel": channel,
					"data":    string(data),
				}).Info()
			}, nil)
		}
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	session.Disconnect()
	session.Close()
}
