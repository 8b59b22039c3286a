/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/truetime-go/truetime"
	"github.com/truetime-go/truetime/monoclock"
	"github.com/truetime-go/truetime/reachability"
)

var (
	queryConfigPath string
	queryPool       string
	queryPort       int
	queryTimeout    time.Duration
)

func init() {
	RootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryConfigPath, "config", "c", "", "path to a YAML config file")
	queryCmd.Flags().StringVarP(&queryPool, "pool", "p", "time.cloudflare.com,time.google.com", "comma-separated pool of NTP host names")
	queryCmd.Flags().IntVar(&queryPort, "port", 123, "NTP port")
	queryCmd.Flags().DurationVar(&queryTimeout, "wait", 10*time.Second, "how long to wait for a result")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Start a client against a pool and print the selected reference time",
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()

		fc := &fileConfig{}
		if queryConfigPath != "" {
			loaded, err := readFileConfig(queryConfigPath)
			if err != nil {
				log.Fatalf("reading config: %v", err)
			}
			fc = loaded
		}

		cfg := fc.engineConfig()
		pool := fc.Pool
		if len(pool) == 0 {
			pool = strings.Split(queryPool, ",")
		}
		port := fc.Port
		if port == 0 {
			port = queryPort
		}

		prober := reachability.NewICMPProber(pool, 30*time.Second, 2*time.Second)
		defer prober.Close()

		client, err := truetime.New(cfg, nil, prober, monoclock.Default())
		if err != nil {
			log.Fatalf("constructing client: %v", err)
		}
		defer client.Close(true)

		client.Start(pool, port)

		result := make(chan struct {
			ref *truetime.ReferenceTime
			err error
		}, 1)
		client.FetchIfNeeded(nil, func(ref *truetime.ReferenceTime, err error) {
			result <- struct {
				ref *truetime.ReferenceTime
				err error
			}{ref, err}
		})

		select {
		case r := <-result:
			if r.err != nil {
				fmt.Println(statusString(false), r.err)
				os.Exit(1)
			}
			printResult(r.ref)
		case <-time.After(queryTimeout):
			fmt.Println(statusString(false), "timed out waiting for a result")
			os.Exit(1)
		}
	},
}

func statusString(ok bool) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		if ok {
			return "[ OK ]"
		}
		return "[FAIL]"
	}
	if ok {
		return color.GreenString("[ OK ]")
	}
	return color.RedString("[FAIL]")
}

func printResult(ref *truetime.ReferenceTime) {
	fmt.Println(statusString(true), "reference time acquired")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"server", "wall time", "sample size"})
	table.Append([]string{
		ref.ServerHost,
		ref.WallTime.Format(time.RFC3339Nano),
		fmt.Sprintf("%d", ref.SampleSize),
	})
	table.Render()
}
