package cmd

import (
	"fmt"
	"os"

	"canbridge/internal/cmd/root"
	"canbridge/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use: "canbridge",
	Run: root.Run,
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().Bool("mock", false, "Use an in-memory bus with a simulated ECU")
	rootCmd.PersistentFlags().String("interface", "vcan0", "CAN interface bound by initialize")
	rootCmd.PersistentFlags().String("listen", ":8723", "Listen address for the channel server")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("mock", rootCmd.PersistentFlags().Lookup("mock"))
	viper.BindPFlag("interface", rootCmd.PersistentFlags().Lookup("interface"))
	viper.BindPFlag("listen", rootCmd.PersistentFlags().Lookup("listen"))

	// Set default values
	viper.SetDefault("debug", false)
	viper.SetDefault("mock", false)
	viper.SetDefault("interface", "vcan0")
	viper.SetDefault("listen", ":8723")
}

func initLogger() {
	log.InitLogger(viper.GetBool("debug"))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
