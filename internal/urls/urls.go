package urls

// Documentation URLs surfaced on the Info tab and in CLI help output.
// All URLs point to the documentation site at https://openkairo.github.io/growdeck/

// GettingStarted is the quick start guide for connecting growdeck
// to a Home Assistant instance and authorizing a token.
const GettingStarted = "https://openkairo.github.io/growdeck/getting-started/"

// PhaseGuide explains the growth phases, their default light schedules,
// and the VPD targets the panel displays for each phase.
const PhaseGuide = "https://openkairo.github.io/growdeck/guides/phases-and-vpd/"

// DeviceSetup covers wiring sensors and actuators into a chamber
// and mapping their entities in the Settings tab.
const DeviceSetup = "https://openkairo.github.io/growdeck/guides/device-setup/"

// TroubleshootingGuide provides solutions to common issues with
// discovery, websocket authentication, and missing sensor readings.
const TroubleshootingGuide = "https://openkairo.github.io/growdeck/troubleshooting/"
