package main

import "github.com/kidoz/zabbix-event-export-go/cmd"

func main() {
	cmd.Execute()
}
