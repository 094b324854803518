package ft260

import (
	"fmt"
	"sync"

	"github.com/antongulenko/hid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	FTDIVendorId   = 0x0403
	FT260ProductId = 0x6030

	// Largest HID report exchanged with the chip, including the report ID
	MaxReportLen = 64
)

type Ft260Driver struct {
	Vendor  uint16
	Product uint16

	// If set, only the device with this HID path is opened
	Path string
}

func (d *Ft260Driver) Open() (*Ft260, error) {
	if !hid.Supported() {
		return nil, errors.New("The library github.com/antongulenko/hid is not supported on this platform")
	}
	vendor, product := d.Vendor, d.Product
	if vendor == 0 {
		vendor = FTDIVendorId
	}
	if product == 0 {
		product = FT260ProductId
	}
	devices := hid.Enumerate(vendor, product)
	if d.Path != "" {
		var matching []hid.DeviceInfo
		for _, info := range devices {
			if info.Path == d.Path {
				matching = append(matching, info)
			}
		}
		devices = matching
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("No USB HID device found with vendorID=%04x productID=%04x path=%q", vendor, product, d.Path)
	}
	if len(devices) > 1 {
		log.Warnf("Multiple devices connected with vendorID=%04x productID=%04x, using first", vendor, product)
	}
	info := devices[0]
	log.Printf("Opening USB HID device %v (USB %v): %v (%04x) from %v (%04x), Release %v",
		info.Path, info.Interface, info.Product, info.ProductID, info.Manufacturer, info.VendorID, info.Release)
	dev, err := info.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open USB HID device %v", info.Path)
	}
	return &Ft260{
		Device: dev,
		Path:   info.Path,
	}, nil
}

func Open() (*Ft260, error) {
	return (&Ft260Driver{}).Open()
}

type Ft260 struct {
	Device HidDevice
	Path   string

	lock sync.Mutex
}

// HidDevice is the part of *hid.Device used for exchanging reports
type HidDevice interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

type ReportIn interface {
	Unmarshall(data []byte) error
	ReportID() byte
	ReportLen() int
}

type ReportOut interface {
	Marshall(data []byte) error
	ReportID() byte
	ReportLen() int
}

func (f *Ft260) String() string {
	return fmt.Sprintf("FT260 %v", f.Path)
}

func (f *Ft260) Close() error {
	return f.Device.Close()
}

// Write sends one output report. The report ID is prepended to the marshalled payload.
func (f *Ft260) Write(report ReportOut) error {
	data := make([]byte, report.ReportLen()+1)
	data[0] = report.ReportID()
	if err := report.Marshall(data[1:]); err != nil {
		return err
	}
	n, err := f.Device.Write(data)
	if err == nil && n != len(data) {
		err = fmt.Errorf("ft260: wrong write len (%v instead of %v)", n, len(data))
	}
	return err
}

// Read fetches a fixed size report, identified by its report ID in the first byte.
func (f *Ft260) Read(report ReportIn) error {
	data := make([]byte, report.ReportLen()+1)
	data[0] = report.ReportID()
	n, err := f.Device.Read(data)
	if err == nil && n != len(data) {
		err = fmt.Errorf("ft260: wrong read len (%v instead of %v)", n, len(data))
	}
	if err == nil && data[0] != report.ReportID() {
		return fmt.Errorf("Unexpected report id (expected %02x, received %02x)", report.ReportID(), data[0])
	}
	if err == nil {
		err = report.Unmarshall(data[1:])
	}
	return err
}

// ReadInput receives one I2C input report. These vary in size, the report ID
// encodes the payload bucket.
func (f *Ft260) ReadInput(report *OperationI2cInput) error {
	data := make([]byte, MaxReportLen)
	n, err := f.Device.Read(data)
	if err != nil {
		return err
	}
	if n < 2 {
		return fmt.Errorf("ft260: short input report (%v byte)", n)
	}
	if data[0] < ReportID_I2CInOut || data[0] > ReportID_I2CInOut_Max {
		return fmt.Errorf("Unexpected input report id %02x", data[0])
	}
	return report.Unmarshall(data[1:n])
}
