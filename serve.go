package main

import (
	"log"
	"os"
	"os/signal"
	"scrimrank/internal/back"
	"scrimrank/internal/config"
	"scrimrank/internal/metrics"
	"scrimrank/internal/web"
	"sync"
	"syscall"
)

func serve(conf *config.Config) error {
	if len(conf.WebToken) < 32 {
		log.Print("warning: web token is shorter than 32 chars, signed triggers will be refused")
	}

	recorder := metrics.NewManager()
	b, err := newBack(conf, back.WithRecorder(recorder))
	if err != nil {
		return err
	}

	done := make(chan struct{})
	signaled := make(chan os.Signal, 1)
	signal.Notify(signaled, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(2)
	go b.Run(&wg, done)
	go web.NewServer(b, conf, recorder.Handler()).Serve(&wg, done)

	sig := <-signaled
	log.Printf("info: received signal %s", sig)
	close(done)
	wg.Wait()

	if err := b.Close(); err != nil {
		return err
	}

	log.Print("info: shutdown complete")

	return nil
}
