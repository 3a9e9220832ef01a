package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"pipesyslog/internal/global"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Example configuration covering both channel variants and both protocols
func Template() (cfg File) {
	cfg = File{
		Sources: map[string]SourceSpec{
			"web": {
				Server:    "127.0.0.1",
				Port:      514,
				Level:     "info",
				Transport: TransportUDP,
				Format:    FormatRFC3164,
				Facility:  "local0",
				Sinks: []SinkSpec{
					{
						Channel: ChannelSpec{Type: ChannelSocket, Port: 9001, Address: "127.0.0.1"},
					},
					{
						Channel: ChannelSpec{Type: ChannelTail, File: "/var/log/nginx/error.log"},
						Level:   "error",
					},
				},
			},
			"worker": {
				Server:   "logs.example.com",
				Port:     5044,
				Protocol: ProtocolBeats,
				Sink: &SinkSpec{
					Channel: ChannelSpec{Type: ChannelTail, File: "/var/log/worker/worker.log"},
				},
			},
		},
		Tail: TailConf{
			Command: global.DefaultTailCommand,
		},
		Metrics: MetricConf{
			Enabled: false,
			Listen:  global.HTTPListenAddr,
		},
	}
	return
}

// Writes the template configuration to path (JSON or YAML by extension), replacing any existing file
func CreateTemplateConfig(path string) (err error) {
	if path == "" {
		err = fmt.Errorf("no template config path provided")
		return
	}

	var content []byte
	if isYAML(path) {
		content, err = yaml.Marshal(Template())
	} else {
		content, err = json.MarshalIndent(Template(), "", "  ")
	}
	if err != nil {
		err = fmt.Errorf("failed to marshal template config: %v", err)
		return
	}

	err = os.WriteFile(path, append(content, '\n'), 0640)
	if err != nil {
		err = fmt.Errorf("failed to write template config: %v", err)
		return
	}
	return
}

// Writes the template configuration, asking before overwriting an existing file.
// Without a terminal an existing file is never overwritten.
func InstallTemplateConfig(path string, input io.Reader) (written bool, err error) {
	_, err = os.Stat(path)
	if err == nil {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Printf("Existing configuration file present, not overwriting\n")
			return
		}

		fmt.Printf("Configuration file already exists at '%s'. Are you SURE you want to overwrite it? (yes/no): ", path)
		reader := bufio.NewReader(input)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Printf("Not overwriting configuration file\n")
			return
		}
	} else if !os.IsNotExist(err) {
		err = fmt.Errorf("failed checking config file existence: %v", err)
		return
	}

	err = CreateTemplateConfig(path)
	if err != nil {
		return
	}
	written = true
	return
}
