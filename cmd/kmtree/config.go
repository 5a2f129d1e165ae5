package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/km3py/km3go/definitions"
	"github.com/km3py/km3go/klog"
)

type Configuration struct {
	FileIn     string `json:"file_in"`
	Branch     string `json:"branch"`
	MaxEntries int    `json:"max_entries"`
	ShowHeader bool   `json:"show_header"`
	NoDB       bool   `json:"no_db"`
	DBTable    string `json:"db_table"`
	Run        int    `json:"run"`
	Host       string `json:"host"`
	Port       string `json:"port"`
	User       string `json:"user"`
	Passwd     string `json:"pass"`
	DBName     string `json:"dbname"`
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.MaxEntries = 10
	config.ShowHeader = true
	config.NoDB = true
	config.DBTable = "definitions"
	config.Port = "3306"

	if filename == "" {
		return config, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func (c Configuration) dbConfig() definitions.DBConfig {
	return definitions.DBConfig{
		User:     c.User,
		Password: c.Passwd,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.DBName,
	}
}

func printConfiguration(config Configuration) {
	klog.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	klog.Info(fmt.Sprintf("Branch: %s", config.Branch), "config")
	klog.Info(fmt.Sprintf("Max entries: %d", config.MaxEntries), "config")
	klog.Info(fmt.Sprintf("Show header: %t", config.ShowHeader), "config")
	klog.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	if !config.NoDB {
		klog.Info(fmt.Sprintf("Host: %s", config.Host), "config")
		klog.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
		klog.Info(fmt.Sprintf("DB table: %s", config.DBTable), "config")
		klog.Info(fmt.Sprintf("Run: %d", config.Run), "config")
	}
}
