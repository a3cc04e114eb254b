package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	kingpin "github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/common/promlog"
	"github.com/prometheus/common/promlog/flag"
	"github.com/prometheus/common/version"
	"github.com/prometheus/exporter-toolkit/web"
	webflag "github.com/prometheus/exporter-toolkit/web/kingpinflag"

	"github.com/tpokki/bme680_check/internal/check"
	"github.com/tpokki/bme680_check/internal/sensor"
)

const (
	programName = "check_bme680"
)

var argPrefixes = map[check.Metric]string{
	check.Temperature: "t",
	check.Humidity:    "h",
	check.Gas:         "g",
	check.Pressure:    "p",
}

type bandArgs struct {
	critMin *float64
	critMax *float64
	warnMin *float64
	warnMax *float64
}

// runArgs holds the positional parameters shared by every command.
type runArgs struct {
	bands    [len(check.Metrics)]bandArgs
	points   *string
	interval *float64
}

func addRunArgs(cmd *kingpin.CmdClause) *runArgs {
	a := &runArgs{}
	for _, m := range check.Metrics {
		p := argPrefixes[m]
		a.bands[m] = bandArgs{
			critMin: cmd.Arg(p+"_crit_min", "Critical minimum for "+m.String()).Required().Float64(),
			critMax: cmd.Arg(p+"_crit_max", "Critical maximum for "+m.String()).Required().Float64(),
			warnMin: cmd.Arg(p+"_warn_min", "Warning minimum for "+m.String()).Required().Float64(),
			warnMax: cmd.Arg(p+"_warn_max", "Warning maximum for "+m.String()).Required().Float64(),
		}
	}
	a.points = cmd.Arg("filt_pts", "Number of samples to median filter").Required().String()
	a.interval = cmd.Arg("filt_int", "Seconds between samples").Required().Float64()
	return a
}

func (a *runArgs) thresholds() check.Thresholds {
	var t check.Thresholds
	for _, m := range check.Metrics {
		b := a.bands[m]
		t[m] = check.Band{
			CritMin: *b.critMin,
			CritMax: *b.critMax,
			WarnMin: *b.warnMin,
			WarnMax: *b.warnMax,
		}
	}
	return t
}

// maxIntervalSeconds is the longest interval a time.Duration can hold.
const maxIntervalSeconds = float64(math.MaxInt64) / float64(time.Second)

// filter converts filt_pts and filt_int. filt_pts must be a plain integer;
// kingpin's Int accepts "2.5" and truncates it.
func (a *runArgs) filter() (check.FilterConfig, error) {
	points, err := strconv.Atoi(*a.points)
	if err != nil {
		return check.FilterConfig{}, fmt.Errorf("%w: filter points must be an integer, got %q", check.ErrInvalidConfig, *a.points)
	}

	seconds := *a.interval
	switch {
	case math.IsNaN(seconds) || math.IsInf(seconds, 0):
		return check.FilterConfig{}, fmt.Errorf("%w: filter interval must be a finite number, got %v", check.ErrInvalidConfig, seconds)
	case seconds < 0:
		return check.FilterConfig{}, fmt.Errorf("%w: filter interval must not be negative, got %gs", check.ErrInvalidConfig, seconds)
	case seconds >= maxIntervalSeconds:
		return check.FilterConfig{}, fmt.Errorf("%w: filter interval %gs is out of range", check.ErrInvalidConfig, seconds)
	}

	cfg := check.FilterConfig{
		Points:   points,
		Interval: time.Duration(seconds * float64(time.Second)),
	}
	return cfg, cfg.Validate()
}

// sensorFlags selects and configures the check.Reader.
type sensorFlags struct {
	source    *string
	iioDevice *string
	gateway   struct {
		url          *string
		serial       *string
		timeout      *time.Duration
		clientID     *string
		clientSecret *string
		scopes       *string
		tokenURL     *string
	}
}

func addSensorFlags(app *kingpin.Application) *sensorFlags {
	f := &sensorFlags{}
	f.source = app.Flag("sensor.source", "Where raw sensor values are read from.").Default("iio").Envar("BME680_SENSOR_SOURCE").Enum("iio", "gateway")
	f.iioDevice = app.Flag("sensor.iio.device", "Sysfs directory of the bme680 IIO device.").Default(sensor.DefaultIIODevice).Envar("BME680_IIO_DEVICE").String()
	f.gateway.url = app.Flag("sensor.gateway.url", "Base URL of the sensor gateway API.").Envar("BME680_GATEWAY_URL").String()
	f.gateway.serial = app.Flag("sensor.gateway.serial", "Serial number of the sensor behind the gateway.").Envar("BME680_GATEWAY_SERIAL").String()
	f.gateway.timeout = app.Flag("sensor.gateway.timeout", "Timeout of a single gateway request.").Default("5s").Duration()
	f.gateway.clientID = app.Flag("sensor.gateway.auth.client.id", "Sensor gateway OAuth2 client ID, authentication is disabled when empty.").Envar("BME680_GATEWAY_CLIENT_ID").String()
	f.gateway.clientSecret = app.Flag("sensor.gateway.auth.client.secret", "Sensor gateway OAuth2 client secret.").Envar("BME680_GATEWAY_CLIENT_SECRET").String()
	f.gateway.scopes = app.Flag("sensor.gateway.auth.scopes", "Sensor gateway OAuth2 scopes.").Default("read:device:current_values").String()
	f.gateway.tokenURL = app.Flag("sensor.gateway.auth.url", "Sensor gateway OAuth2 token URL.").String()
	return f
}

func (f *sensorFlags) reader(ctx context.Context, logger log.Logger) (check.Reader, error) {
	switch *f.source {
	case "gateway":
		var scopes []string
		if *f.gateway.scopes != "" {
			scopes = strings.Split(*f.gateway.scopes, ",")
		}
		return sensor.NewGateway(ctx, sensor.GatewayConfig{
			URL:          *f.gateway.url,
			Serial:       *f.gateway.serial,
			Timeout:      *f.gateway.timeout,
			ClientID:     *f.gateway.clientID,
			ClientSecret: *f.gateway.clientSecret,
			Scopes:       scopes,
			TokenURL:     *f.gateway.tokenURL,
		}, logger)
	default:
		return sensor.NewIIO(*f.iioDevice, logger)
	}
}

// positionalArgs ends flag parsing before the first negative number so that
// thresholds such as -10 are not mistaken for short flags.
func positionalArgs(args []string) []string {
	for i, a := range args {
		if a == "--" {
			return args
		}
		if !strings.HasPrefix(a, "-") {
			continue
		}
		if _, err := strconv.ParseFloat(a, 64); err == nil {
			out := make([]string, 0, len(args)+1)
			out = append(out, args[:i]...)
			out = append(out, "--")
			return append(out, args[i:]...)
		}
	}
	return args
}

func warnUnorderedBands(logger log.Logger, t check.Thresholds) {
	for _, m := range check.Metrics {
		if !t[m].Ordered() {
			level.Warn(logger).Log("msg", "threshold band is not ordered, limits are applied as given", "metric", m, "band", t[m])
		}
	}
}

func run(args []string, stdout io.Writer) int {
	app := kingpin.New(programName, "Nagios compatible check for a BME680 temperature, humidity, gas and pressure sensor.")
	app.Version(version.Print(programName))
	app.HelpFlag.Short('h')

	promlogConfig := &promlog.Config{}
	flag.AddFlags(app, promlogConfig)
	sensorCfg := addSensorFlags(app)
	webConfig := webflag.AddFlags(app, ":9680")

	checkCmd := app.Command("check", "Poll the sensor once and print the plugin status line.").Default()
	checkArgs := addRunArgs(checkCmd)
	exporterCmd := app.Command("exporter", "Serve the check as Prometheus metrics, one run per scrape.")
	exporterArgs := addRunArgs(exporterCmd)

	command, err := app.Parse(positionalArgs(args))
	if err != nil {
		return check.Write(stdout, nil, err)
	}
	logger := promlog.New(promlogConfig)

	selected := checkArgs
	if command == exporterCmd.FullCommand() {
		selected = exporterArgs
	}
	filter, err := selected.filter()
	if err != nil {
		return check.Write(stdout, nil, err)
	}

	reader, err := sensorCfg.reader(context.Background(), logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to set up sensor reader", "err", err)
		return check.Write(stdout, nil, err)
	}
	runner, err := check.NewRunner(reader, filter, logger)
	if err != nil {
		return check.Write(stdout, nil, err)
	}
	thresholds := selected.thresholds()
	warnUnorderedBands(logger, thresholds)

	if command == exporterCmd.FullCommand() {
		return serve(runner, thresholds, webConfig, logger)
	}
	report, err := runner.Run(thresholds)
	return check.Write(stdout, report, err)
}

func serve(runner *check.Runner, thresholds check.Thresholds, webConfig *web.FlagConfig, logger log.Logger) int {
	exporter := NewExporter(runner, thresholds, logger)
	level.Info(logger).Log("msg", "starting "+programName, "version", version.Info(), "build_context", version.BuildContext())

	srv := &http.Server{Handler: newRouter(exporter, logger)}
	if err := web.ListenAndServe(srv, webConfig, logger); err != nil {
		level.Error(logger).Log("msg", "Error starting HTTP server", "err", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}
