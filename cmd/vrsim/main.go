// Package main runs a VR session against a simulated headset and controllers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vrpose/vrpose/calibration"
	"github.com/vrpose/vrpose/config"
	"github.com/vrpose/vrpose/device"
	"github.com/vrpose/vrpose/device/fake"
	"github.com/vrpose/vrpose/floor"
	inputfake "github.com/vrpose/vrpose/input/fake"
	"github.com/vrpose/vrpose/logging"
	"github.com/vrpose/vrpose/session"
	"github.com/vrpose/vrpose/utils"
)

const (
	flagSettings  = "settings"
	flagDebug     = "debug"
	flagRenderHz  = "render-hz"
	flagMainHz    = "main-hz"
	flagDuration  = "duration"
	flagHeight    = "height"
	flagArmSpan   = "arm-span"
	flagTicks     = "ticks"
	flagNoWatch   = "no-watch"
	flagCalibrate = "calibrate"
)

func main() {
	logger := logging.NewLogger("vrsim")

	app := &cli.App{
		Name:  "vrsim",
		Usage: "run a VR session against a simulated player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagSettings,
				Aliases: []string{"c"},
				Value:   "vrpose.json",
				Usage:   "load and save settings in `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.Float64Flag{Name: flagRenderHz, Value: 90, Usage: "render loop rate"},
			&cli.Float64Flag{Name: flagMainHz, Value: 60, Usage: "simulation loop rate"},
			&cli.DurationFlag{Name: flagDuration, Value: 10 * time.Second, Usage: "stop after this long"},
			&cli.Float64Flag{Name: flagHeight, Value: 1.8, Usage: "simulated player height in meters"},
			&cli.Float64Flag{Name: flagArmSpan, Value: 1.75, Usage: "simulated player arm span in meters"},
			&cli.BoolFlag{Name: flagNoWatch, Usage: "do not reload the settings file when it changes"},
		},
		Before: func(c *cli.Context) error {
			config.InitLoggingSettings(logger, c.Bool(flagDebug))
			return nil
		},
		Action: func(c *cli.Context) error {
			return run(c, logger, false, 0)
		},
		Commands: []*cli.Command{
			{
				Name:  flagCalibrate,
				Usage: "press the calibrate button and report the measured body",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagTicks,
						Value: calibration.DefaultDurationTicks,
						Usage: "calibration window in simulation ticks",
					},
				},
				Action: func(c *cli.Context) error {
					return run(c, logger, true, c.Int(flagTicks))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func run(c *cli.Context, logger logging.Logger, calibrate bool, ticks int) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Duration(flagDuration))
	defer cancel()

	settings, err := config.Read(c.String(flagSettings), logger.Sublogger("config"))
	if err != nil {
		return err
	}
	defer func() {
		if err := settings.Flush(); err != nil {
			logger.Errorw("failed to save settings", "error", err)
		}
	}()

	renderHz := c.Float64(flagRenderHz)
	rt := fake.NewRuntime()
	motion{
		height:  c.Float64(flagHeight),
		armSpan: c.Float64(flagArmSpan),
		frameHz: renderHz,
		headID:  device.HeadsetID,
		handIDs: [2]device.ID{1, 2},
	}.install(rt)
	src := inputfake.NewSource()

	sess, err := session.New(ctx, rt, src, settings, logger.Sublogger("session"))
	if err != nil {
		return err
	}
	done := make(chan calibration.BodyCalibration, 1)
	sess.OnPlayerCalibrationChanged(func(b calibration.BodyCalibration) {
		select {
		case done <- b:
		default:
		}
	})
	sess.OnPlayerFloorChanged(func(f floor.ReferenceFrames) {
		logger.Infow("player floor changed", "player", f.PlayerToAbsolute.Translation())
	})

	if calibrate {
		if ticks != calibration.DefaultDurationTicks {
			sess.StartCalibration(ticks)
		} else {
			src.Press(session.CalibrateAction)
		}
	}

	clk := clock.New()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return utils.RunAtRate(ctx, clk, renderHz, logger.Sublogger("render"), sess.RenderStep)
	})
	g.Go(func() error {
		return utils.RunAtRate(ctx, clk, c.Float64(flagMainHz), logger.Sublogger("main"), sess.MainStep)
	})
	if !c.Bool(flagNoWatch) {
		g.Go(func() error {
			return config.Watch(ctx, settings, logger.Sublogger("config"))
		})
	}
	if calibrate {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return errors.New("stopped before calibration finished")
			case b := <-done:
				fmt.Fprintf(c.App.Writer, "height: %.2f m\narm span: %.2f m\n", b.Height, b.ArmSpan)
				cancel()
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	head := sess.Headset().Pose()
	logger.Infow("session finished",
		"id", sess.ID().String(),
		"head", head.DeviceToAbsolute.Translation(),
		"calibration", sess.GetBodyCalibration(),
		"primary_hand_velocity", sess.PrimaryHand().RollingVelocity())
	return nil
}
