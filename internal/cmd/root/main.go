package root

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"canbridge/internal/bridge"
	"canbridge/internal/can"
	"canbridge/internal/channel"
	"canbridge/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func Run(cmd *cobra.Command, args []string) {
	defer log.Sync()

	iface := viper.GetString("interface")

	dial := can.Dial
	if viper.GetBool("mock") {
		loop := can.NewLoopbackBus()
		sim := bridge.NewSimulatedECU(loop.Open())
		sim.Start()
		defer sim.Stop()
		dial = func(string) (can.Bus, error) { return loop.Open(), nil }
		log.Info("using simulated CAN bus", zap.String("interface", iface))
	}

	b := bridge.New(dial)
	defer b.Disconnect()

	registry := channel.NewRegistry(channel.StandardCodec{})
	registry.Register(channel.ChannelCANBus, channel.NewCANBusHandler(b, iface))
	registry.Register(channel.ChannelSensors, channel.SensorsHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	srv := channel.NewServer(viper.GetString("listen"), registry)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("channel server failed", zap.Error(err))
	}
}
