/*
This is an example application that uses the engine package to load a
scene and keep it alive.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/helios/testbed"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	sceneFile := flag.String("scene", "scenes/helmet/DamagedHelmet.gltf", "scene file, relative to the assets directory")
	flag.Parse()

	game, err := testbed.New(*configPath)
	if err != nil {
		panic(err)
	}

	if err := game.Initialize(); err != nil {
		panic(err)
	}

	if err := game.LoadScene(*sceneFile); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		<-sigCh
		_ = game.Shutdown()
		os.Exit(0)
	}()

	if err := game.Run(); err != nil {
		panic(err)
	}

	if err := game.Shutdown(); err != nil {
		panic(err)
	}
}
