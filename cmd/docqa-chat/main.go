package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docqa/internal/client"
	"docqa/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var serverURL string
	flag.StringVar(&serverURL, "server", "http://localhost:8000", "Base URL of the docqa server")
	flag.Parse()

	c := client.New(serverURL)
	if err := c.Health(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot reach server at %s: %v\n", serverURL, err)
		os.Exit(1)
	}

	m := tui.New(c, fmt.Sprintf("Connected to %s. Type to chat, /clear to reset.", serverURL))
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
