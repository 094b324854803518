package ft260

import (
	"fmt"

	"github.com/antongulenko/tca8418/i2cbus"
	"github.com/pkg/errors"
)

const (
	ReportID_I2CStatus    = 0xC0 // Feature In
	ReportID_I2CRead      = 0xC2 // Output
	ReportID_I2CInOut     = 0xD0 // 0xD0 - 0xDE, Input, Output
	ReportID_I2CInOut_Max = 0xDE

	// Max size of I2C write payload: (1 + Report ID - 0xD0) * 4 byte
	I2CMaxPayload = (1 + ReportID_I2CInOut_Max - ReportID_I2CInOut) * 4

	// Number of status polls before a busy controller is reported as an error
	I2CStatusRetries = 10
)

const (
	I2C_StatusControllerBusy = byte(1 << iota)
	I2C_StatusError
	I2C_StatusNoSlaveAck
	I2C_StatusNoDataAck
	I2C_StatusArbitrationLost
	I2C_StatusControllerIdle
	I2C_StatusBusBusy
)

const (
	I2C_MasterNone         = 0x0
	I2C_MasterStart        = 0x2
	I2C_MasterRepStart     = 0x3
	I2C_MasterStop         = 0x4
	I2C_MasterStartStop    = 0x6
	I2C_MasterRepStartStop = 0x7
)

var ErrNoSlaveAck = errors.New("ft260: I2C slave did not acknowledge")

var _ i2cbus.I2cBus = new(Ft260)

func I2cMasterCodeString(code byte) string {
	switch code {
	case I2C_MasterNone:
		return "Nothing"
	case I2C_MasterStart:
		return "Start"
	case I2C_MasterRepStart:
		return "Repeated Start"
	case I2C_MasterStop:
		return "Stop"
	case I2C_MasterStartStop:
		return "Start + Stop"
	case I2C_MasterRepStartStop:
		return "Repeated Start + Stop"
	default:
		return fmt.Sprintf("Unknown I2C Master code %v", code)
	}
}

// Result of ReportID_I2CStatus Feature In
type ReportI2cStatus struct {
	BusStatus byte   // Bitmask of I2C_Status...
	BusSpeed  uint16 // 2 byte: LSB+MSB
	// 1 reserved
}

func (r *ReportI2cStatus) ReportID() byte {
	return ReportID_I2CStatus
}

func (r *ReportI2cStatus) ReportLen() int {
	return 4
}

func (r *ReportI2cStatus) Unmarshall(b []byte) error {
	r.BusStatus = b[0]
	r.BusSpeed = uint16(b[1]) + uint16(b[2])<<8
	return nil
}

func (r *ReportI2cStatus) Busy() bool {
	return r.BusStatus&I2C_StatusControllerBusy != 0
}

func (r *ReportI2cStatus) Err() error {
	switch {
	case r.BusStatus&I2C_StatusError == 0:
		return nil
	case r.BusStatus&(I2C_StatusNoSlaveAck|I2C_StatusNoDataAck) != 0:
		return errors.WithStack(ErrNoSlaveAck)
	case r.BusStatus&I2C_StatusArbitrationLost != 0:
		return errors.New("ft260: I2C arbitration lost")
	default:
		return fmt.Errorf("ft260: I2C error (status %02x)", r.BusStatus)
	}
}

// Data of ReportID_I2CRead Interrupt Out
type OperationI2cRead struct {
	SlaveAddr byte   // 0..127
	Condition byte   // I2C_Master...
	Len       uint16 // data length (little endian)
}

func (r *OperationI2cRead) ReportID() byte {
	return ReportID_I2CRead
}

func (r *OperationI2cRead) ReportLen() int {
	return 4
}

func (r *OperationI2cRead) Marshall(b []byte) error {
	if r.SlaveAddr&0x80 != 0 {
		return fmt.Errorf("Invalid I2C slave address: %02x", r.SlaveAddr)
	}
	b[0] = r.SlaveAddr
	b[1] = r.Condition
	b[2], b[3] = byte(r.Len), byte(r.Len>>8)
	return nil
}

// Data of ReportID_I2CInOut Interrupt Out
type OperationI2cWrite struct {
	SlaveAddr byte // 0..127
	Condition byte // I2C_Master...
	// 1 byte payload len
	Payload []byte
}

// Each report ID from 0xD0 carries 4 more payload bytes
func (r *OperationI2cWrite) buckets() int {
	if len(r.Payload) == 0 {
		return 1
	}
	return (len(r.Payload) + 3) / 4
}

func (r *OperationI2cWrite) ReportID() byte {
	return ReportID_I2CInOut + byte(r.buckets()-1)
}

func (r *OperationI2cWrite) ReportLen() int {
	return 3 + 4*r.buckets()
}

func (r *OperationI2cWrite) Marshall(b []byte) error {
	if len(r.Payload) > I2CMaxPayload {
		return fmt.Errorf("Payload len %v exceeds maximum size of %v", len(r.Payload), I2CMaxPayload)
	}
	if r.SlaveAddr&0x80 != 0 {
		return fmt.Errorf("Invalid I2C slave address: %02x", r.SlaveAddr)
	}
	b[0] = r.SlaveAddr
	b[1] = r.Condition
	b[2] = byte(len(r.Payload))
	copy(b[3:], r.Payload)
	return nil
}

// Data of ReportID_I2CInOut Interrupt In
type OperationI2cInput struct {
	// 1 byte payload length
	Data []byte
	N    int
}

func (r *OperationI2cInput) Unmarshall(d []byte) error {
	l := int(d[0])
	if len(d) < l+1 {
		return fmt.Errorf("Short I2C read (%v, needed at least %v)", len(d), l+1)
	}
	if l > len(r.Data) {
		return fmt.Errorf("ft260: received %v byte, but only %v were requested", l, len(r.Data))
	}
	r.N = copy(r.Data, d[1:1+l])
	return nil
}

// i2cSplitTransaction splits a write into report sized chunks. Only the first
// chunk starts the transaction and only the last one may stop it.
func i2cSplitTransaction(stop bool, data []byte) ([][]byte, []byte) {
	var payloads [][]byte
	var conditions []byte
	for start := 0; start < len(data); start += I2CMaxPayload {
		end := start + I2CMaxPayload
		if end > len(data) {
			end = len(data)
		}
		payloads = append(payloads, data[start:end])
		conditions = append(conditions, I2C_MasterNone)
	}
	if len(conditions) > 0 {
		conditions[0] |= I2C_MasterStart
		if stop {
			conditions[len(conditions)-1] |= I2C_MasterStop
		}
	}
	return payloads, conditions
}

func (f *Ft260) I2cStatus() (status ReportI2cStatus, err error) {
	err = f.Read(&status)
	return
}

// waitI2c polls the controller until it is no longer busy and reports bus errors
func (f *Ft260) waitI2c() error {
	for i := 0; i < I2CStatusRetries; i++ {
		status, err := f.I2cStatus()
		if err != nil {
			return err
		}
		if !status.Busy() {
			return status.Err()
		}
	}
	return errors.New("ft260: I2C controller stays busy")
}

func (f *Ft260) I2cWrite(addr byte, data ...byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.i2cWrite(addr, true, data)
}

func (f *Ft260) I2cRead(addr byte, data []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.i2cRead(addr, I2C_MasterStartStop, data)
}

func (f *Ft260) I2cWriteRead(addr byte, out, in []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := f.i2cWrite(addr, false, out); err != nil {
		return err
	}
	return f.i2cRead(addr, I2C_MasterRepStartStop, in)
}

func (f *Ft260) i2cWrite(addr byte, stop bool, data []byte) error {
	payloads, conditions := i2cSplitTransaction(stop, data)
	if len(payloads) == 0 {
		// Address-only transaction
		payloads = [][]byte{nil}
		conditions = []byte{I2C_MasterStart}
		if stop {
			conditions[0] = I2C_MasterStartStop
		}
	}
	for i, payload := range payloads {
		err := f.Write(&OperationI2cWrite{
			SlaveAddr: addr,
			Condition: conditions[i],
			Payload:   payload,
		})
		if err != nil {
			return err
		}
	}
	return f.waitI2c()
}

func (f *Ft260) i2cRead(addr byte, condition byte, data []byte) error {
	if len(data) > 0xFFFF {
		return fmt.Errorf("ft260: I2C read of %v byte exceeds maximum of %v", len(data), 0xFFFF)
	}
	err := f.Write(&OperationI2cRead{
		SlaveAddr: addr,
		Condition: condition,
		Len:       uint16(len(data)),
	})
	if err != nil {
		return err
	}
	for received := 0; received < len(data); {
		input := OperationI2cInput{Data: data[received:]}
		if err := f.ReadInput(&input); err != nil {
			return err
		}
		if input.N == 0 {
			// The controller sends an empty report when the slave does not answer
			if err := f.waitI2c(); err != nil {
				return err
			}
			return errors.WithStack(ErrNoSlaveAck)
		}
		received += input.N
	}
	return f.waitI2c()
}
