// Package lib provides a Go SDK for driving usbforge deployments and
// benchmarks programmatically.
//
// This package allows applications to enumerate target devices, deploy system
// images, benchmark disks and query run history without shelling out to the
// usbforge CLI binary.
//
// # Quick Start
//
// Create a client, pick a device and deploy an image:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	devices, err := client.ListDevices(ctx, false)
//
//	view, err := client.Write(ctx, lib.WriteRequest{
//	    Options: lib.WriteOptions{
//	        SourcePath: "/images/win11.wim",
//	        Target:     devices[0],
//	    },
//	    OnProgress: func(v lib.WriteView) {
//	        fmt.Printf("%s %.0f%%\n", v.Status, v.Progress)
//	    },
//	})
//
// # Safety
//
// Deployments are destructive. The SDK runs the same safety gate as the CLI:
// a confirmation prompt armed with a cooldown that cannot be answered early.
// By default the gate auto-confirms after waiting out the cooldown; supply
// your own [Prompter] in [Config] to put a human in the loop.
//
// # Backends
//
// The default backend is an in-process simulator that walks tasks through the
// real phase sequence without touching any disk. Supply [Config].Backend to
// drive a real execution backend.
package lib
