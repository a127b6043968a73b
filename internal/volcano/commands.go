package volcano

// Command interface. Every operation is marshalled onto the coordinator
// goroutine so that no characteristic access bypasses its serialization, and
// every operation is a no-op with a warning unless the device is connected.
// Setters clamp out-of-range input to the nearest bound before encoding; the
// device tolerates corrected values but not rejected commands.

// WriteControl writes a raw payload to a control characteristic. Used for the
// pump/heat trigger characteristics, which take an empty payload.
func (c *Coordinator) WriteControl(uuid string, payload []byte) {
	c.dispatch("control write", func() {
		c.writeCharacteristic(uuid, payload)
	})
}

// PumpOn turns the pump on.
func (c *Coordinator) PumpOn() { c.WriteControl(CharUUIDPumpOn, nil) }

// PumpOff turns the pump off.
func (c *Coordinator) PumpOff() { c.WriteControl(CharUUIDPumpOff, nil) }

// HeatOn turns the heater on.
func (c *Coordinator) HeatOn() { c.WriteControl(CharUUIDHeatOn, nil) }

// HeatOff turns the heater off.
func (c *Coordinator) HeatOff() { c.WriteControl(CharUUIDHeatOff, nil) }

// SetTargetTemperature writes the heater setpoint, clamped to
// [MinTargetTemperature, MaxTargetTemperature] °C.
func (c *Coordinator) SetTargetTemperature(celsius float64) {
	payload := EncodeTargetTemperature(celsius)
	c.dispatch("setpoint write", func() {
		c.logger.Infof("Coordinator: setting target temperature to %.1f °C", celsius)
		c.writeCharacteristic(CharUUIDHeaterSetpoint, payload)
	})
}

// SetLEDBrightness writes the display brightness, clamped to [0,100] percent.
func (c *Coordinator) SetLEDBrightness(percent int) {
	payload := EncodeLEDBrightness(percent)
	c.dispatch("brightness write", func() {
		c.logger.Infof("Coordinator: setting LED brightness to %d%%", percent)
		c.writeCharacteristic(CharUUIDLEDBrightness, payload)
	})
}

// SetAutoShutoffMinutes writes the auto shutoff delay, clamped to
// [MinAutoShutoffMinutes, MaxAutoShutoffMinutes].
func (c *Coordinator) SetAutoShutoffMinutes(minutes int) {
	payload := EncodeAutoShutoffMinutes(minutes)
	c.dispatch("auto shutoff write", func() {
		c.logger.Infof("Coordinator: setting auto shutoff to %d min", minutes)
		c.writeCharacteristic(CharUUIDAutoShutoffSetting, payload)
	})
}

// SetAutoShutoffEnabled enables or disables the auto shutoff timer.
func (c *Coordinator) SetAutoShutoffEnabled(on bool) {
	payload := []byte{0x00}
	if on {
		payload[0] = 0x01
	}
	c.dispatch("auto shutoff toggle", func() {
		c.logger.Infof("Coordinator: setting auto shutoff enabled=%v", on)
		c.writeCharacteristic(CharUUIDAutoShutoff, payload)
	})
}

// SetVibration sets the vibration bit of the control register, preserving the
// register's unrelated bits via read-modify-write.
func (c *Coordinator) SetVibration(on bool) {
	c.dispatch("vibration toggle", func() {
		if !c.client.IsConnected() {
			c.logger.Warnf("Coordinator: cannot toggle vibration: not connected")
			return
		}
		data, err := c.client.ReadCharacteristic(CharUUIDVibrationRegister)
		if err != nil {
			c.logger.Errorf("Coordinator: vibration register read failed: %v", err)
			c.mutate(func(s *DeviceState) { s.LastError = err.Error() })
			return
		}
		register, err := DecodeUint16(data)
		if err != nil {
			c.logger.Warnf("Coordinator: %v", err)
			return
		}
		if on {
			register |= VibrationMask
		} else {
			register &^= VibrationMask
		}
		c.logger.Infof("Coordinator: setting vibration=%v (register=0x%04x)", on, register)
		c.writeCharacteristic(CharUUIDVibrationRegister, encodeUint16(register))
	})
}

// dispatch queues fn for execution by the coordinator goroutine. Commands
// issued while the coordinator is stopped are dropped with a warning.
func (c *Coordinator) dispatch(name string, fn func()) {
	c.runMu.Lock()
	running := c.running
	c.runMu.Unlock()

	if !running {
		c.logger.Warnf("Coordinator: dropping %s: coordinator is not running", name)
		return
	}

	select {
	case c.commandCh <- fn:
	default:
		c.logger.Warnf("Coordinator: dropping %s: command queue full", name)
	}
}

// writeCharacteristic performs a gated write on the coordinator goroutine. A
// failed write surfaces through LastError and the fan-out but does not force
// a disconnect; the poll loop decides when the link is actually dead.
func (c *Coordinator) writeCharacteristic(uuid string, payload []byte) {
	if !c.client.IsConnected() {
		c.logger.Warnf("Coordinator: cannot write %s: not connected", uuid)
		return
	}
	if err := c.client.WriteCharacteristic(uuid, payload); err != nil {
		c.logger.Errorf("Coordinator: write %s failed: %v", uuid, err)
		c.mutate(func(s *DeviceState) { s.LastError = err.Error() })
		return
	}
	c.logger.Debugf("Coordinator: wrote %d byte(s) to %s", len(payload), uuid)
}
