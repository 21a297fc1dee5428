/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command shmsg relays text messages between two processes through a
// single shared-memory slot.
//
// Usage:
//
//	shmsg producer [flags]   # create the channel, spawn the consumer, read stdin
//	shmsg consumer [flags]   # attach to the channel and print fragments
//	shmsg loopback [flags]   # both peers in one process
//	shmsg inspect [flags] [path]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command, args := os.Args[1], os.Args[2:]
	var err error
	switch command {
	case "producer":
		err = producerCommand(args)
	case "consumer":
		err = consumerCommand(args)
	case "loopback":
		err = loopbackCommand(args)
	case "inspect":
		err = inspectCommand(args)
	case "version", "--version", "-v":
		fmt.Printf("shmsg version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`shmsg - message relay over a single shared-memory slot

USAGE:
    shmsg <command> [flags]

COMMANDS:
    producer   Create the channel, start a consumer and send lines read from stdin
    consumer   Attach to an existing channel and display what arrives
    loopback   Run producer and consumer in one process
    inspect    Print the header and slot of a channel
    version    Show version information
    help       Show this help message

Messages longer than the fragment size are sent in pieces, each one
acknowledged by the consumer before the next is written. Type q on its
own line to end the session.

Every flag can also be set with its SHMSG_* environment variable; run
"shmsg <command> -h" for the list.
`)
}
