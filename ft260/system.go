package ft260

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	ReportID_ChipCode      = 0xA0 // Feature In
	ReportID_SystemSetting = 0xA1 // Feature In/Out

	FT260_CHIP_CODE = 0x02600200

	// Valid range for SetSystemSetting_I2CSetClock in kHz
	I2CMinClock = 60
	I2CMaxClock = 3400
)

// Requests for ReportID_SystemSetting Feature Out
const (
	SetSystemSetting_Clock       = 0x01 // Clock...
	SetSystemSetting_I2CReset    = 0x20 // <empty>
	SetSystemSetting_I2CSetClock = 0x22 // LSB+MSB of clock speed (60K-3400K bps)
)

const (
	Clock12MHz = byte(0)
	Clock24MHz = byte(1)
	Clock48MHz = byte(2)
)

// Result of ReportID_ChipCode Feature In
type ReportChipCode struct {
	ChipCode uint32 // 02600200
	// 8 reserved byte
}

func (r *ReportChipCode) ReportID() byte {
	return ReportID_ChipCode
}

func (r *ReportChipCode) ReportLen() int {
	return 12
}

func (r *ReportChipCode) Unmarshall(b []byte) error {
	r.ChipCode = uint32(b[0])<<24 + uint32(b[1])<<16 + uint32(b[2])<<8 + uint32(b[3])
	return nil
}

type SetSystemStatus struct {
	Request byte
	Value   interface{}
}

func (r *SetSystemStatus) ReportID() byte {
	return ReportID_SystemSetting
}

func (r *SetSystemStatus) ReportLen() int {
	switch r.Request {
	case SetSystemSetting_Clock:
		return 2
	case SetSystemSetting_I2CSetClock:
		return 3
	default:
		return 1
	}
}

func (r *SetSystemStatus) Marshall(b []byte) error {
	b[0] = r.Request
	switch r.Request {
	case SetSystemSetting_I2CReset:
		// No payload
	case SetSystemSetting_Clock:
		val, ok := r.Value.(byte)
		if !ok {
			return fmt.Errorf("System Setting Request ID %02x expects type %T, but got value of type %T (%v)", r.Request, byte(0), r.Value, r.Value)
		}
		if val > Clock48MHz {
			return fmt.Errorf("Invalid FT260 clock setting %v", val)
		}
		b[1] = val
	case SetSystemSetting_I2CSetClock:
		val, ok := r.Value.(uint16)
		if !ok {
			return fmt.Errorf("System Setting Request ID %02x expects type %T, but got value of type %T (%v)", r.Request, uint16(0), r.Value, r.Value)
		}
		if val < I2CMinClock || val > I2CMaxClock {
			return fmt.Errorf("I2C clock %vkHz out of range (%v - %v)", val, I2CMinClock, I2CMaxClock)
		}
		b[1], b[2] = byte(val), byte(val>>8)
	default:
		return fmt.Errorf("Unknown system setting request ID: %02x", r.Request)
	}
	return nil
}

// Configure checks the chip code, resets the I2C controller and sets the bus speed in kHz
func (f *Ft260) Configure(i2cFreq uint16) (err error) {
	var code ReportChipCode
	if err = f.Read(&code); err != nil {
		return errors.Wrap(err, "Failed to read FT260 chip code")
	}
	if code.ChipCode != FT260_CHIP_CODE {
		return fmt.Errorf("Unexpected chip code %08x (expected %08x)", code.ChipCode, FT260_CHIP_CODE)
	}
	f.writeSetting(&err, SetSystemSetting_Clock, Clock48MHz)
	f.writeSetting(&err, SetSystemSetting_I2CReset, nil) // Reset i2c bus in case it was disturbed
	f.writeSetting(&err, SetSystemSetting_I2CSetClock, i2cFreq)
	if err != nil {
		return
	}
	status, err := f.I2cStatus()
	if err != nil {
		return err
	}
	if status.BusSpeed != i2cFreq {
		return fmt.Errorf("FT260: unexpected I2C bus speed %v (expected %v)", status.BusSpeed, i2cFreq)
	}
	return nil
}

func (f *Ft260) writeSetting(outErr *error, request byte, val interface{}) {
	if *outErr == nil {
		*outErr = f.Write(&SetSystemStatus{
			Request: request,
			Value:   val,
		})
	}
}
