package config

import (
	"bufio"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/conclist/lib/logger"
)

// BenchProperties configures a listbench run
type BenchProperties struct {
	// goroutines pushing, and values pushed by each
	Pushers int `cfg:"pushers"`
	Items   int `cfg:"items"`
	// goroutines popping, and RemoveOne calls made by each
	Poppers int `cfg:"poppers"`
	Pops    int `cfg:"pops"`
	// goroutines walking the list with Contains during both rounds
	Checkers int `cfg:"checkers"`
	// seconds before a round is considered stalled
	Timeout int `cfg:"timeout"`

	RDBFilename string `cfg:"dbfilename"`
	LogPath     string `cfg:"logpath"`
	Verbose     bool   `cfg:"verbose"`
}

// Properties holds global config properties
var Properties *BenchProperties

func init() {
	// default config
	Properties = defaults()
}

func defaults() *BenchProperties {
	return &BenchProperties{
		Pushers:  100,
		Items:    1,
		Poppers:  50,
		Pops:     1,
		Checkers: 4,
		Timeout:  30,
		LogPath:  "logs",
	}
}

func generateRawMap(src io.Reader) map[string]string {
	rawMap := make(map[string]string)
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && line[0] == '#' {
			continue
		}
		pivot := strings.IndexAny(line, " ")
		if pivot > 0 && pivot < len(line)-1 { // separator found
			key := line[0:pivot]
			value := strings.Trim(line[pivot+1:], " ")
			rawMap[strings.ToLower(key)] = value
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal(err)
	}
	return rawMap
}

// parse fills a copy of the defaults with the keys present in src
func parse(src io.Reader) *BenchProperties {
	config := defaults()

	rawMap := generateRawMap(src)

	t := reflect.TypeOf(config)
	v := reflect.ValueOf(config)
	n := t.Elem().NumField()
	for i := 0; i < n; i++ {
		field := t.Elem().Field(i)
		fieldVal := v.Elem().Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok {
			key = field.Name
		}
		value, ok := rawMap[strings.ToLower(key)]
		if !ok {
			continue
		}
		switch field.Type.Kind() {
		case reflect.String:
			fieldVal.SetString(value)
		case reflect.Int:
			intValue, err := strconv.ParseInt(value, 10, 64)
			if err == nil && intValue >= 0 {
				fieldVal.SetInt(intValue)
			} else {
				logger.Warn("ignoring bad value for ", key, ": ", value)
			}
		case reflect.Bool:
			boolValue := "yes" == value
			fieldVal.SetBool(boolValue)
		}
	}
	return config
}

// SetupConfig read config file and store properties into Properties
func SetupConfig(configFilename string) {
	file, err := os.Open(configFilename)
	if err != nil {
		panic(err)
	}
	defer file.Close()
	Properties = parse(file)
}
