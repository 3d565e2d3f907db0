package main

import "terrariumd/internal/terractl"

func main() { terractl.Main() }
